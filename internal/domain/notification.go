package domain

import "time"

type Notification struct {
	ID                string    `json:"_id"`
	RecipientUsername string    `json:"recipientId"`
	SenderUsername    string    `json:"senderId"`
	Type              string    `json:"type"`
	Message           string    `json:"message"`
	Seen              bool      `json:"seen"`
	Timestamp         time.Time `json:"timestamp"`
}

func CountUnseen(ns []Notification) int {
	n := 0
	for _, item := range ns {
		if !item.Seen {
			n++
		}
	}
	return n
}
