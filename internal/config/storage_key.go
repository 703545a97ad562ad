package config

import (
	"fmt"
)

type StorageKeyStruct struct {
	// AccessToken and User are the two durable session keys. They are
	// written and cleared together.
	AccessToken string
	User        string
}

// Redis returns the namespaced Redis key for a session key.
func (k *StorageKeyStruct) Redis(key string) string {
	return fmt.Sprintf("langcenter:session:%s", key)
}

var StorageKey = &StorageKeyStruct{
	AccessToken: "accessToken",
	User:        "user",
}
