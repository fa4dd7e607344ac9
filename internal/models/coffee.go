package models

import "time"

// Coffee is one stored coffee record. Data is an opaque JSON document owned by the client.
type Coffee struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Data      string    `json:"data"`
	CreatedAt time.Time `json:"created_at"`
}

// CoffeeLabel is the structured result of analyzing a photo of a coffee bag.
type CoffeeLabel struct {
	Name         string `json:"name"`
	Origin       string `json:"origin"`
	Process      string `json:"process"`
	Cultivar     string `json:"cultivar"`
	Altitude     string `json:"altitude"`
	Roaster      string `json:"roaster"`
	TastingNotes string `json:"tastingNotes"`
	AddedDate    string `json:"addedDate"`
}
