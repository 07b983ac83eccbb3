package flow

// MonthlyWithDiscount applies a percentage promo discount to the base
// monthly price.
func MonthlyWithDiscount(base float64, discountPercent int) float64 {
	return base * (1 - float64(discountPercent)/100)
}

// TotalPrice is a linear day-rate approximation: monthly/30 per day,
// regardless of actual month length. This is the defined pricing semantics.
func TotalPrice(monthly float64, rentDays int) float64 {
	return monthly / 30 * float64(rentDays)
}
