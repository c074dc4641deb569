package aic

import (
	"errors"

	"github.com/John-Robertt/artfinder/internal/museum"
)

var errMissingData = errors.New(`响应缺少 "data" 数组`)

type searchResponse struct {
	Pagination *struct {
		Total       int `json:"total"`
		Limit       int `json:"limit"`
		TotalPages  int `json:"total_pages"`
		CurrentPage int `json:"current_page"`
	} `json:"pagination"`
	Data   *[]record `json:"data"`
	Config *struct {
		IIIFURL string `json:"iiif_url"`
	} `json:"config"`
}

type record struct {
	ID                  museum.FlexString `json:"id"`
	Title               string            `json:"title"`
	ArtistDisplay       string            `json:"artist_display"`
	DateDisplay         string            `json:"date_display"`
	DateStart           museum.FlexInt    `json:"date_start"`
	DateEnd             museum.FlexInt    `json:"date_end"`
	MediumDisplay       string            `json:"medium_display"`
	DepartmentTitle     string            `json:"department_title"`
	ClassificationTitle string            `json:"classification_title"`
	CreditLine          string            `json:"credit_line"`
	PlaceOfOrigin       string            `json:"place_of_origin"`
	AccessionNumber     string            `json:"accession_number"`
	IsPublicDomain      *bool             `json:"is_public_domain"`
	Description         string            `json:"description"`
	ImageID             string            `json:"image_id"`
	Thumbnail           *struct {
		Width   museum.FlexInt `json:"width"`
		Height  museum.FlexInt `json:"height"`
		AltText string         `json:"alt_text"`
	} `json:"thumbnail"`
}
