package repository

import "github.com/mmeshcher/tiffin-storefront/internal/model"

// DefaultMenu возвращает встроенный каталог, используемый до первого
// сохранения меню оператором.
func DefaultMenu() []model.MenuItem {
	return []model.MenuItem{
		{
			ID:           "1",
			Name:         "Cholle Puri",
			Price:        80,
			Description:  "Classic Punjabi style spicy chickpeas served with fluffy fried bread. A perfect evening snack.",
			ImageURL:     "https://images.unsplash.com/photo-1626132647523-66f5bf380027?q=80&w=800&auto=format&fit=crop",
			Available:    true,
			Category:     "Recommended",
			IsVeg:        true,
			Rating:       floatPtr(4.5),
			Votes:        intPtr(128),
			IsBestseller: true,
		},
		{
			ID:           "2",
			Name:         "Aloo Paratha (3pc)",
			Price:        100,
			Description:  "Golden flatbread stuffed with spiced mashed potatoes, served with fresh curd and pickle.",
			ImageURL:     "https://images.unsplash.com/photo-1626074353765-517a681e40be?q=80&w=800&auto=format&fit=crop",
			Available:    true,
			Category:     "Breads",
			IsVeg:        true,
			Rating:       floatPtr(4.3),
			Votes:        intPtr(85),
			IsBestseller: true,
		},
		{
			ID:          "3",
			Name:        "Jawar Roti (2pc)",
			Price:       30,
			Description: "Traditional healthy sorghum flatbread, handmade and gluten-free. Best with spicy curries.",
			ImageURL:    "https://cdn.pixabay.com/photo/2023/09/24/14/05/bread-8273030_1280.jpg",
			Available:   true,
			Category:    "Breads",
			IsVeg:       true,
			Rating:      floatPtr(4.0),
			Votes:       intPtr(42),
		},
		{
			ID:          "4",
			Name:        "Ashirwad Chapathi (2pc)",
			Price:       30,
			Description: "Soft and fluffy whole wheat chapathis made home-style without oil.",
			ImageURL:    "https://images.unsplash.com/photo-1565557623262-b51c2513a641?q=80&w=800&auto=format&fit=crop",
			Available:   true,
			Category:    "Breads",
			IsVeg:       true,
			Rating:      floatPtr(4.1),
			Votes:       intPtr(56),
		},
		{
			ID:          "5",
			Name:        "Special Veg Curry",
			Price:       80,
			Description: "Seasonal mixed vegetables cooked in a rich, aromatic tomato and onion gravy.",
			ImageURL:    "https://images.unsplash.com/photo-1546833999-b9f581a1996d?q=80&w=800&auto=format&fit=crop",
			Available:   true,
			Category:    "Curries",
			IsVeg:       true,
			Rating:      floatPtr(4.2),
			Votes:       intPtr(94),
		},
	}
}

// DefaultCoupons возвращает встроенный справочник купонов.
func DefaultCoupons() []model.Coupon {
	return []model.Coupon{
		{
			Code:            "WELCOME50",
			Description:     "50% off up to ₹100 on orders above ₹150",
			DiscountPercent: 50,
			MaxDiscount:     100,
			MinOrder:        150,
		},
		{
			Code:           "TIFFIN20",
			Description:    "Flat ₹20 off on orders above ₹200",
			DiscountAmount: 20,
			MinOrder:       200,
		},
	}
}

// DefaultCategoryImages возвращает встроенные картинки категорий.
func DefaultCategoryImages() map[string]string {
	return map[string]string{
		"Recommended": "https://images.unsplash.com/photo-1626132647523-66f5bf380027?q=80&w=400&auto=format&fit=crop",
		"Breads":      "https://images.unsplash.com/photo-1565557623262-b51c2513a641?q=80&w=400&auto=format&fit=crop",
		"Curries":     "https://images.unsplash.com/photo-1546833999-b9f581a1996d?q=80&w=400&auto=format&fit=crop",
	}
}

func floatPtr(v float64) *float64 {
	return &v
}

func intPtr(v int) *int {
	return &v
}
