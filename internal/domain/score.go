// Package domain defines the persistence models for played games. These types
// are mapped with GORM and form the core data layer of the score service.
package domain

// Score is one finished Tower of Hanoi game.
//
// Fields:
//   - ID: auto-incrementing primary key, assigned by the database.
//   - Player: free-form player name as submitted.
//   - NTurn: number of moves the player needed.
//   - MedianTime: median time per move in milliseconds.
//   - Disks: number of disks in the tower.
//   - CreationDate: insertion time, defaulted by the database.
//
// ID and CreationDate are never supplied by clients; they are read back from
// the INSERT ... RETURNING row.
type Score struct {
	ID           int32    `json:"id"            gorm:"primaryKey;autoIncrement"`
	Player       string   `json:"player"        gorm:"not null"`
	NTurn        int32    `json:"n_turn"        gorm:"column:n_turn;not null"`
	MedianTime   int32    `json:"median_time"   gorm:"not null"`
	Disks        int32    `json:"disks"         gorm:"not null"`
	CreationDate DateTime `json:"creation_date" gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP"`
}

// TableName returns the database table name for Score.
func (Score) TableName() string { return "scores" }

// NewScore is the client-supplied part of a Score.
type NewScore struct {
	Player     string
	NTurn      int32
	Disks      int32
	MedianTime int32
}

// Row builds the insertable Score for n. Database-owned fields stay zero.
func (n NewScore) Row() *Score {
	return &Score{
		Player:     n.Player,
		NTurn:      n.NTurn,
		MedianTime: n.MedianTime,
		Disks:      n.Disks,
	}
}
