package sso

import "github.com/atamsindonesia/aura/pkg/encryption"

// AtlasEncryption protects credentials exchanged with the Atlas SSO service.
// It shares the AES-CBC scheme used for response encryption but is keyed with
// the Atlas ecosystem secrets, which every AURA app receives via settings.
type AtlasEncryption struct {
	aes *encryption.ResponseEncryption
}

func NewAtlasEncryption(key, iv string) *AtlasEncryption {
	return &AtlasEncryption{aes: encryption.NewResponseEncryption(key, iv)}
}

func (e *AtlasEncryption) Encrypt(data string) (string, error) {
	return e.aes.Encrypt(data)
}

func (e *AtlasEncryption) Decrypt(data string) (string, error) {
	return e.aes.Decrypt(data)
}
