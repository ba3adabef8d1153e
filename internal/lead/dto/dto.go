package dto

import "time"

type ListFilters struct {
	Status   string // contact enquiries only
	Search   string // name or email
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}
