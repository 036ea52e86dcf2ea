package domain

import (
	"encoding/base64"
	"strconv"
)

// DefaultPageSize is used when a list request does not set a limit.
const DefaultPageSize = 100

// PageRequest asks for one page of a listing.
type PageRequest struct {
	Limit     int
	NextToken string
}

// Size returns the effective page size.
func (p PageRequest) Size() int {
	if p.Limit <= 0 {
		return DefaultPageSize
	}
	return p.Limit
}

// Page is one page of results. An empty NextToken means the listing is exhausted.
type Page[T any] struct {
	Items     []T    `json:"items"`
	NextToken string `json:"nextToken,omitempty"`
}

// EncodeCursor turns an offset into an opaque token.
func EncodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

// DecodeCursor reverses EncodeCursor. The empty token is offset zero.
func DecodeCursor(token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, ErrInvalidCursor
	}
	offset, err := strconv.Atoi(string(raw))
	if err != nil || offset < 0 {
		return 0, ErrInvalidCursor
	}
	return offset, nil
}

// NextCursor returns the token for the page after one that started at offset,
// or "" when fetched is shorter than the page size.
func NextCursor(offset, size, fetched int) string {
	if fetched < size {
		return ""
	}
	return EncodeCursor(offset + fetched)
}
