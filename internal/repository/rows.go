package repository

import (
	"fmt"
	"strconv"

	"ryven-shop/internal/gateway"
)

func text(row gateway.Row, column string) string {
	switch v := row[column].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func integer(row gateway.Row, column string) int64 {
	switch v := row[column].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

// nullable stores empty optional text as NULL
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
