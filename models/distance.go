// File: /models/distance.go
package models

import (
	"fmt"
)

// Distance is a fixed race length shared across events
type Distance struct {
	ID uint `json:"id" gorm:"primaryKey"`
	Km int  `json:"km" gorm:"not null;uniqueIndex"`
}

func (d Distance) String() string {
	return fmt.Sprintf("%d km", d.Km)
}
