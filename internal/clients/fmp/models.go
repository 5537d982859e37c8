package fmp

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// quoteRow is the part of the quote response this client reads.
type quoteRow struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// treasuryRow is one row of the treasury rates response.
type treasuryRow struct {
	Date   string    `json:"date"`
	Month1 flexFloat `json:"month1"`
}

// flexFloat decodes a number that the API serves either bare or quoted.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

var _ json.Unmarshaler = (*flexFloat)(nil)
