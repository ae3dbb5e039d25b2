package checkout

// GST rate for canteen food is 5%, rounded half up to whole rupees.
func GST(subtotal int64) int64 {
	return (subtotal*5 + 50) / 100
}
