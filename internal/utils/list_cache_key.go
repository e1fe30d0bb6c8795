package utils

import (
	"strconv"
	"strings"
)

func BuildProductsListCacheKey(limit int, productType, query, cursor string) string {
	return "products:list:v1:limit=" + strconv.Itoa(limit) +
		":type=" + strings.ToLower(strings.TrimSpace(productType)) +
		":q=" + strings.ToLower(strings.TrimSpace(query)) +
		":cursor=" + cursor
}
