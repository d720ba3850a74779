package model

type Department struct {
	Base
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description,omitempty"`
}
