package rooms

import (
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const roomIDLength = 12

// IDProvider issues opaque identifiers.
type IDProvider interface {
	NewID() (string, error)
}

type uuidProvider struct{}

// NewUUIDProvider constructs an IDProvider that issues UUIDv7 identifiers.
// UUIDv7 values sort by creation time, which keeps vote listings in join order.
func NewUUIDProvider() IDProvider {
	return &uuidProvider{}
}

func (p *uuidProvider) NewID() (string, error) {
	value, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return value.String(), nil
}

type nanoIDProvider struct {
	length int
}

// NewRoomIDProvider constructs an IDProvider for short URL-safe room ids.
func NewRoomIDProvider() IDProvider {
	return &nanoIDProvider{length: roomIDLength}
}

func (p *nanoIDProvider) NewID() (string, error) {
	return gonanoid.New(p.length)
}
