package predict

import "fmt"

const (
	lakh  = 1e5
	crore = 1e7
)

// FormatPrice renders a rupee amount in crores at or above one crore and in
// lakhs otherwise.
func FormatPrice(rupees float64) string {
	if rupees >= crore {
		return fmt.Sprintf("Rs. %.2f Crs", rupees/crore)
	}
	return fmt.Sprintf("Rs. %.2f Lakhs", rupees/lakh)
}
