package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// BankPayloadKey returns the cache key for a question bank's answer-stripped payload.
func (r *CacheKeyStruct) BankPayloadKey(bankID string) string {
	return fmt.Sprintf("qbank:%s:payload", bankID)
}

var CacheKey = NewCacheKeyStruct()
