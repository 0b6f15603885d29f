package main

import (
	"strconv"
	"strings"
)

// NormalizeDocumentNumber builds DocumentNumber from a cell value.
// Numbers from spreadsheet cells come as float64 and are printed without fraction.
func NormalizeDocumentNumber(value any) DocumentNumber {
	var raw string
	switch v := value.(type) {
	case nil:
		raw = ""
	case string:
		raw = v
	case float64:
		raw = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		raw = strconv.Itoa(v)
	case int64:
		raw = strconv.FormatInt(v, 10)
	default:
		raw = strings.TrimSpace(toString(v))
	}
	raw = strings.TrimSpace(raw)

	key := strings.TrimLeft(raw, "0")
	if key == "" {
		key = "0"
	}
	number, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		number = 0
	}
	return DocumentNumber{
		Raw:     raw,
		Key:     key,
		Value:   number,
		Numeric: isDigits(raw),
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, char := range s {
		if char < '0' || char > '9' {
			return false
		}
	}
	return true
}
