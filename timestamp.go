package nostr

import "time"

type Timestamp int64

func Now() Timestamp {
	return Timestamp(time.Now().Unix())
}

func (t Timestamp) Time() time.Time {
	return time.Unix(int64(t), 0)
}

func (t Timestamp) Before(u Timestamp) bool {
	return t < u
}

func (t Timestamp) After(u Timestamp) bool {
	return t > u
}
