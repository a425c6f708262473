package testfixtures

import "sync/atomic"

// RandomIDs is a predictable stand-in for the random_id source of the chat
// client: it yields start+1, start+2, and so on.
type RandomIDs struct {
	last atomic.Int64
}

func NewRandomIDs(start int64) *RandomIDs {
	ids := &RandomIDs{}
	ids.last.Store(start)
	return ids
}

func (r *RandomIDs) Next() int64 {
	return r.last.Add(1)
}

// Func returns Next for injection into vk.ClientConfig.RandomID.
func (r *RandomIDs) Func() func() int64 {
	return r.Next
}
