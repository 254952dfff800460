package models

import "time"

// VideoRecord is the persisted metadata row for a fully transcoded video,
// created only after every rendition has been durably written.
type VideoRecord struct {
	VideoID   int64     `json:"video_id" db:"video_id" validate:"omitempty"`
	Name      string    `json:"name" db:"name" validate:"required,lte=255"`
	URL       string    `json:"url" db:"url" validate:"required,lte=512"`
	CreatedAt time.Time `json:"created_at" db:"created_at" validate:"omitempty"`
}

type VideoList struct {
	Videos     []*VideoRecord `json:"videos"`
	TotalCount int            `json:"total_count"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	HasMore    bool           `json:"has_more"`
}
