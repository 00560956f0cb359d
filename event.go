package nostr

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

type Event struct {
	ID        string
	PubKey    string
	CreatedAt Timestamp
	Kind      int
	Tags      Tags
	Content   string
	Sig       string
}

// NewEvent builds an Event from its seven raw fields and fully validates it:
// shape checks, id recomputation and signature verification. It either returns
// a verified event or a *ValidationError.
func NewEvent(id, pubkey string, createdAt Timestamp, kind int, tags Tags, content, sig string) (*Event, error) {
	evt := &Event{
		ID:        id,
		PubKey:    pubkey,
		CreatedAt: createdAt,
		Kind:      kind,
		Tags:      tags,
		Content:   content,
		Sig:       sig,
	}
	if err := evt.Validate(); err != nil {
		return nil, err
	}
	return evt, nil
}

// Validate checks the event shape, recomputes the id from the serialized body
// and verifies the signature. Events received from relays must pass this
// before being handed to callers.
func (evt *Event) Validate() error {
	if !isLowerHex(evt.ID, 64) {
		return &ValidationError{What: "event", Reason: "id must be a 64-character lowercase hex string"}
	}
	if !isLowerHex(evt.PubKey, 64) {
		return &ValidationError{What: "event", Reason: "pubkey must be a 64-character lowercase hex string"}
	}
	if !isLowerHex(evt.Sig, 128) {
		return &ValidationError{What: "event", Reason: "sig must be a 128-character lowercase hex string"}
	}
	if evt.CreatedAt < 0 {
		return &ValidationError{What: "event", Reason: "created_at must be non-negative"}
	}
	if !IsValidKind(evt.Kind) {
		return &ValidationError{What: "event", Reason: "kind must be between 0 and " + strconv.Itoa(MaxKind)}
	}
	for _, tag := range evt.Tags {
		if len(tag) == 0 {
			return &ValidationError{What: "event", Reason: "tags must not contain empty tags"}
		}
	}
	if evt.GetID() != evt.ID {
		return &ValidationError{What: "event", Reason: "id does not match the computed event id"}
	}
	if ok, _ := evt.CheckSignature(); !ok {
		return &ValidationError{What: "event", Reason: "sig is not a valid signature for the event"}
	}
	return nil
}

// GetID serializes and returns the event ID as a string.
func (evt *Event) GetID() string {
	h := sha256.Sum256(evt.Serialize())
	return hex.EncodeToString(h[:])
}

// Serialize outputs a byte array that can be hashed/signed to identify/authenticate.
// JSON encoding as defined in RFC4627.
func (evt *Event) Serialize() []byte {
	// the serialization process is just putting everything into a JSON array
	// so the order is kept. See NIP-01
	dst := make([]byte, 0)

	// the header portion is easy to serialize
	// [0,"pubkey",created_at,kind,[
	dst = append(dst, []byte(
		fmt.Sprintf(
			"[0,\"%s\",%d,%d,",
			evt.PubKey,
			evt.CreatedAt,
			evt.Kind,
		))...)

	// tags
	dst = evt.Tags.marshalTo(dst)
	dst = append(dst, ',')

	// content needs to be escaped in general as it is user generated.
	dst = escapeString(dst, evt.Content)
	dst = append(dst, ']')

	return dst
}

// CheckSignature checks if the signature is valid for the serialized event body.
// It returns false with a nil error for cryptographically invalid signatures;
// an error is only returned when the pubkey or signature are malformed hex.
func (evt *Event) CheckSignature() (bool, error) {
	pk, err := hex.DecodeString(evt.PubKey)
	if err != nil {
		return false, fmt.Errorf("event pubkey '%s' is invalid hex: %w", evt.PubKey, err)
	}

	pubkey, err := schnorr.ParsePubKey(pk)
	if err != nil {
		return false, fmt.Errorf("event has invalid pubkey '%s': %w", evt.PubKey, err)
	}

	s, err := hex.DecodeString(evt.Sig)
	if err != nil {
		return false, fmt.Errorf("signature '%s' is invalid hex: %w", evt.Sig, err)
	}
	sig, err := schnorr.ParseSignature(s)
	if err != nil {
		return false, fmt.Errorf("failed to parse signature: %w", err)
	}

	hash := sha256.Sum256(evt.Serialize())
	return sig.Verify(hash[:], pubkey), nil
}

// Sign signs an event with a given secretKey.
// It sets the event's ID, PubKey, and Sig fields.
func (evt *Event) Sign(secretKey string) error {
	s, err := hex.DecodeString(secretKey)
	if err != nil {
		return fmt.Errorf("Sign called with invalid secret key '%s': %w", secretKey, err)
	}

	if evt.Tags == nil {
		evt.Tags = make(Tags, 0)
	}

	sk, pk := btcec.PrivKeyFromBytes(s)
	pkBytes := pk.SerializeCompressed()
	evt.PubKey = hex.EncodeToString(pkBytes[1:])

	h := sha256.Sum256(evt.Serialize())
	sig, err := schnorr.Sign(sk, h[:])
	if err != nil {
		return err
	}

	evt.ID = hex.EncodeToString(h[:])
	evt.Sig = hex.EncodeToString(sig.Serialize())

	return nil
}

// GetTagValues returns every value following the tag name, across all tags
// whose first element equals name, preserving order.
func (evt *Event) GetTagValues(name string) []string {
	values := make([]string, 0, len(evt.Tags))
	for _, tag := range evt.Tags {
		if len(tag) > 0 && tag[0] == name {
			values = append(values, tag[1:]...)
		}
	}
	return values
}

// HasTag checks if any tag's first element equals name.
func (evt *Event) HasTag(name string) bool {
	for _, tag := range evt.Tags {
		if len(tag) > 0 && tag[0] == name {
			return true
		}
	}
	return false
}

// HasTagValue checks if any tag named name also carries value among its
// remaining elements.
func (evt *Event) HasTagValue(name, value string) bool {
	for _, tag := range evt.Tags {
		if len(tag) > 0 && tag[0] == name {
			for _, v := range tag[1:] {
				if v == value {
					return true
				}
			}
		}
	}
	return false
}

func (evt Event) String() string {
	j, _ := evt.MarshalJSON()
	return string(j)
}
