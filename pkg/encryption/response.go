package encryption

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// ResponseEncryption encrypts GET response payloads with AES-256-CBC.
// The key is truncated or zero-padded to 32 bytes and the IV to 16, matching
// the rest of the AURA ecosystem so frontends can decrypt with shared config.
type ResponseEncryption struct {
	key []byte
	iv  []byte
}

func NewResponseEncryption(encryptionKey, encryptionIV string) *ResponseEncryption {
	return &ResponseEncryption{
		key: normalize([]byte(encryptionKey), 32),
		iv:  normalize([]byte(encryptionIV), aes.BlockSize),
	}
}

func normalize(b []byte, size int) []byte {
	out := make([]byte, size)
	copy(out, b)
	return out
}

// Encrypt returns the base64 encoding of the AES-CBC ciphertext of data.
func (e *ResponseEncryption) Encrypt(data string) (string, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	padded := pkcs7Pad([]byte(data), aes.BlockSize)
	encrypted := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, e.iv).CryptBlocks(encrypted, padded)

	return base64.StdEncoding.EncodeToString(encrypted), nil
}

// Decrypt reverses Encrypt.
func (e *ResponseEncryption) Decrypt(encryptedData string) (string, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(encryptedData)
	if err != nil {
		return "", fmt.Errorf("invalid base64 payload: %w", err)
	}
	if len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
		return "", fmt.Errorf("ciphertext length %d is not a multiple of the block size", len(raw))
	}

	decrypted := make([]byte, len(raw))
	cipher.NewCBCDecrypter(block, e.iv).CryptBlocks(decrypted, raw)

	unpadded, err := pkcs7Unpad(decrypted, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(unpadded), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty plaintext")
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize || padding > len(data) {
		return nil, fmt.Errorf("invalid padding")
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, fmt.Errorf("invalid padding")
		}
	}
	return data[:len(data)-padding], nil
}

// EncryptedEnvelope is what clients receive in place of the plain payload
// when response encryption is enabled.
type EncryptedEnvelope struct {
	Encrypted bool   `json:"encrypted"`
	Data      string `json:"data"`
}

// EncryptResponse serializes payload to JSON and wraps its ciphertext in an
// EncryptedEnvelope. With enabled=false the payload is returned untouched.
func EncryptResponse(enabled bool, enc *ResponseEncryption, payload interface{}) (interface{}, error) {
	if !enabled {
		return payload, nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize response: %w", err)
	}

	encrypted, err := enc.Encrypt(string(raw))
	if err != nil {
		return nil, err
	}

	return EncryptedEnvelope{Encrypted: true, Data: encrypted}, nil
}
