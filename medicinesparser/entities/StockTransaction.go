package entities

import "time"

type StockTransaction struct {
	ID         string    `json:"id"`
	MedicineID string    `json:"medicineId"`
	Delta      int       `json:"delta"`
	Reason     string    `json:"reason"`
	Actor      string    `json:"actor"`
	Timestamp  time.Time `json:"timestamp"`
}
