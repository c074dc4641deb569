package cma

import (
	"errors"

	"github.com/John-Robertt/artfinder/internal/museum"
)

var errMissingData = errors.New(`响应缺少 "data" 数组`)

// searchResponse 只声明用到的字段；其余字段忽略。
type searchResponse struct {
	Info *struct {
		Total int `json:"total"`
	} `json:"info"`
	Data *[]record `json:"data"`
}

type record struct {
	ID                   museum.FlexString `json:"id"`
	AccessionNumber      string            `json:"accession_number"`
	ShareLicenseStatus   string            `json:"share_license_status"`
	Title                string            `json:"title"`
	CreationDate         string            `json:"creation_date"`
	CreationDateEarliest museum.FlexInt    `json:"creation_date_earliest"`
	CreationDateLatest   museum.FlexInt    `json:"creation_date_latest"`
	Creators             []struct {
		Description string `json:"description"`
	} `json:"creators"`
	Culture     museum.FlexString `json:"culture"`
	Technique   string            `json:"technique"`
	Department  string            `json:"department"`
	Type        string            `json:"type"`
	CreditLine  string            `json:"creditline"`
	Description string            `json:"description"`
	URL         string            `json:"url"`
	Images      *struct {
		Web *webImage `json:"web"`
	} `json:"images"`
}

type webImage struct {
	URL    string         `json:"url"`
	Width  museum.FlexInt `json:"width"`
	Height museum.FlexInt `json:"height"`
}
