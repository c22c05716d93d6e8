// Package simple is the reduced bounty program: a single flat record with a
// three-state lifecycle and no escrow, fee, reputation, or deadline. It is a
// strict behavioral subset of the full marketplace in package bounty.
package simple

import (
	"encoding/binary"
	"fmt"

	"agentbounty-backend/core/bounty"
)

// Status is the reduced lifecycle: open -> in_progress -> completed.
type Status uint8

const (
	StatusOpen Status = iota
	StatusInProgress
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusInProgress:
		return "in_progress"
	case StatusCompleted:
		return "completed"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Bounty is the single flat record of the reduced program.
type Bounty struct {
	Creator       bounty.Principal  `json:"creator"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Reward        uint64            `json:"reward"`
	Status        Status            `json:"status"`
	AssignedAgent *bounty.Principal `json:"assigned_agent,omitempty"`
}

// Instruction is the reduced operation set.
type Instruction interface {
	isInstruction()
}

// CreateBounty opens a new record owned by the calling creator.
type CreateBounty struct {
	Title       string
	Description string
	Reward      uint64
}

// ClaimBounty assigns the calling agent.
type ClaimBounty struct{}

// CompleteBounty finishes the record; only the assigned agent may call it.
type CompleteBounty struct{}

func (CreateBounty) isInstruction()   {}
func (ClaimBounty) isInstruction()    {}
func (CompleteBounty) isInstruction() {}

var (
	ErrBountyNotOpen       = bounty.Err("bounty is not open")
	ErrBountyNotInProgress = bounty.Err("bounty is not in progress")
	ErrNotAssignedAgent    = bounty.Err("not the assigned agent")
)

// Process applies one instruction to the record on behalf of the signer.
// Either the record is fully updated or it is left untouched.
func Process(b *Bounty, signer bounty.Principal, in Instruction) error {
	switch v := in.(type) {
	case CreateBounty:
		*b = Bounty{
			Creator:     signer,
			Title:       v.Title,
			Description: v.Description,
			Reward:      v.Reward,
			Status:      StatusOpen,
		}
		return nil
	case ClaimBounty:
		if b.Status != StatusOpen {
			return ErrBountyNotOpen
		}
		b.Status = StatusInProgress
		b.AssignedAgent = &signer
		return nil
	case CompleteBounty:
		if b.Status != StatusInProgress {
			return ErrBountyNotInProgress
		}
		if b.AssignedAgent == nil || *b.AssignedAgent != signer {
			return ErrNotAssignedAgent
		}
		b.Status = StatusCompleted
		return nil
	}
	return fmt.Errorf("unknown instruction %T", in)
}

// Wire layout matches the full program's record encoding rules: little-endian
// integers, u32-length-prefixed strings, one-byte option flags, u8 enums.

// Marshal encodes the flat record.
func (b Bounty) Marshal() []byte {
	out := append([]byte{}, b.Creator[:]...)
	out = appendString(out, b.Title)
	out = appendString(out, b.Description)
	out = binary.LittleEndian.AppendUint64(out, b.Reward)
	out = append(out, uint8(b.Status))
	if b.AssignedAgent != nil {
		out = append(out, 1)
		out = append(out, b.AssignedAgent[:]...)
	} else {
		out = append(out, 0)
	}
	return out
}

// UnmarshalBounty decodes a flat record.
func UnmarshalBounty(data []byte) (Bounty, error) {
	var b Bounty
	r := reader{buf: data}
	copy(b.Creator[:], r.take(len(b.Creator)))
	b.Title = r.str()
	b.Description = r.str()
	b.Reward = r.u64()
	b.Status = Status(r.u8())
	if r.err == nil && b.Status > StatusCompleted {
		r.err = fmt.Errorf("invalid status discriminant %d", uint8(b.Status))
	}
	switch flag := r.u8(); flag {
	case 0:
	case 1:
		var agent bounty.Principal
		copy(agent[:], r.take(len(agent)))
		b.AssignedAgent = &agent
	default:
		if r.err == nil {
			r.err = fmt.Errorf("invalid option flag %d", flag)
		}
	}
	if r.err != nil {
		return Bounty{}, r.err
	}
	if r.off != len(data) {
		return Bounty{}, fmt.Errorf("record has %d trailing bytes", len(data)-r.off)
	}
	return b, nil
}

// Instruction wire discriminants.
const (
	tagCreateBounty uint8 = iota
	tagClaimBounty
	tagCompleteBounty
)

// MarshalInstruction encodes an instruction as discriminant + payload.
func MarshalInstruction(in Instruction) []byte {
	switch v := in.(type) {
	case CreateBounty:
		out := []byte{tagCreateBounty}
		out = appendString(out, v.Title)
		out = appendString(out, v.Description)
		return binary.LittleEndian.AppendUint64(out, v.Reward)
	case ClaimBounty:
		return []byte{tagClaimBounty}
	case CompleteBounty:
		return []byte{tagCompleteBounty}
	}
	return nil
}

// UnmarshalInstruction decodes an instruction from its wire form.
func UnmarshalInstruction(data []byte) (Instruction, error) {
	r := reader{buf: data}
	var in Instruction
	switch tag := r.u8(); tag {
	case tagCreateBounty:
		in = CreateBounty{
			Title:       r.str(),
			Description: r.str(),
			Reward:      r.u64(),
		}
	case tagClaimBounty:
		in = ClaimBounty{}
	case tagCompleteBounty:
		in = CompleteBounty{}
	default:
		return nil, fmt.Errorf("unknown instruction discriminant %d", tag)
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.off != len(data) {
		return nil, fmt.Errorf("instruction has %d trailing bytes", len(data)-r.off)
	}
	return in, nil
}

func appendString(out []byte, s string) []byte {
	out = binary.LittleEndian.AppendUint32(out, uint32(len(s)))
	return append(out, s...)
}

type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.buf) {
		r.err = fmt.Errorf("record truncated at offset %d", r.off)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *reader) str() string {
	b := r.take(4)
	if b == nil {
		return ""
	}
	return string(r.take(int(binary.LittleEndian.Uint32(b))))
}
