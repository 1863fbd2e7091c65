package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultIssuer = "shopfeed"

type Claims struct {
	TenantID uint64 `json:"tenant_id"`
	jwt.RegisteredClaims
}

// LoadRSAPublicKeyFromEnv reads a PEM public key from an env var.
func LoadRSAPublicKeyFromEnv(envKey string) (*rsa.PublicKey, error) {
	raw := strings.TrimSpace(os.Getenv(envKey))
	if raw == "" {
		return nil, fmt.Errorf("%s is not set", envKey)
	}
	return ParseRSAPublicKeyPEM(raw)
}

// ParseRSAPublicKeyPEM accepts either a normal multi-line PEM, or a
// single-line PEM with \n escapes.
func ParseRSAPublicKeyPEM(raw string) (*rsa.PublicKey, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), `\n`, "\n")

	pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("parse public key pem failed: %w", err)
	}
	return pub, nil
}

// ParseRSAPrivateKeyPEM supports PKCS#1 and PKCS#8 keys.
func ParseRSAPrivateKeyPEM(raw string) (*rsa.PrivateKey, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), `\n`, "\n")

	block, _ := pem.Decode([]byte(raw))
	if block == nil {
		return nil, errors.New("pem decode failed")
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse pkcs1 private key failed: %w", err)
		}
		return priv, nil

	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse pkcs8 private key failed: %w", err)
		}
		priv, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("pkcs8 key is not rsa")
		}
		return priv, nil

	default:
		return nil, fmt.Errorf("unsupported pem type: %s", block.Type)
	}
}

// GenerateKeyPair returns a PKCS#1 private key and an SPKI public key, both
// PEM encoded.
func GenerateKeyPair(bits int) (privPEM, pubPEM []byte, err error) {
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, nil, err
	}

	privPEM = pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(priv),
	})

	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal public key failed: %w", err)
	}
	pubPEM = pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubDER,
	})

	return privPEM, pubPEM, nil
}

func ParseAndValidateRS256(tokenString string, pub *rsa.PublicKey) (*Claims, error) {
	if pub == nil {
		return nil, errors.New("public key is nil")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name}),
		jwt.WithLeeway(30*time.Second),
		jwt.WithExpirationRequired(),
	)

	tok, err := parser.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		return pub, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, errors.New("invalid token")
	}

	if claims.TenantID == 0 {
		return nil, errors.New("tenant_id missing")
	}

	return claims, nil
}

type MintOptions struct {
	TenantID uint64
	Issuer   string
	Subject  string
	TTL      time.Duration
	Now      time.Time
}

func MintRS256(priv *rsa.PrivateKey, o MintOptions) (string, error) {
	if o.TenantID == 0 {
		return "", errors.New("tenant_id is required")
	}
	if o.Issuer == "" {
		o.Issuer = DefaultIssuer
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	now := o.Now.UTC()

	c := Claims{
		TenantID: o.TenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    o.Issuer,
			Subject:   o.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(o.TTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodRS256, c).SignedString(priv)
}
