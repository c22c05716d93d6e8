package bounty

import (
	"encoding/binary"
	"fmt"
)

// Persisted record layout: little-endian fixed-width integers, principals as
// raw 32-byte identifiers, strings as u32 length prefix + UTF-8 bytes,
// optionals as a one-byte presence flag followed by the value, enums as a u8
// discriminant. Encoding is canonical, so decode(encode(r)) == r and
// encode(decode(b)) == b for every well-formed record.

type encoder struct {
	buf []byte
}

func (e *encoder) u8(v uint8) { e.buf = append(e.buf, v) }
func (e *encoder) u32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}
func (e *encoder) u64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}
func (e *encoder) i64(v int64) { e.u64(uint64(v)) }

func (e *encoder) str(s string) {
	e.u32(uint32(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *encoder) principal(p Principal) { e.buf = append(e.buf, p[:]...) }

func (e *encoder) option(present bool) {
	if present {
		e.u8(1)
	} else {
		e.u8(0)
	}
}

type decoder struct {
	buf []byte
	off int
	err error
}

func (d *decoder) fail(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf(format, args...)
	}
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if d.off+n > len(d.buf) {
		d.fail("record truncated at offset %d (need %d bytes)", d.off, n)
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) u8() uint8 {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *decoder) u32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (d *decoder) u64() uint64 {
	b := d.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (d *decoder) i64() int64 { return int64(d.u64()) }

func (d *decoder) str(max int) string {
	n := int(d.u32())
	if d.err == nil && n > max {
		d.fail("string length %d exceeds limit %d", n, max)
	}
	b := d.take(n)
	return string(b)
}

func (d *decoder) principal() Principal {
	var p Principal
	copy(p[:], d.take(len(p)))
	return p
}

func (d *decoder) option() bool {
	switch flag := d.u8(); flag {
	case 0:
		return false
	case 1:
		return true
	default:
		d.fail("invalid option flag %d at offset %d", flag, d.off-1)
		return false
	}
}

func (d *decoder) finish() error {
	if d.err != nil {
		return d.err
	}
	if d.off != len(d.buf) {
		return fmt.Errorf("record has %d trailing bytes", len(d.buf)-d.off)
	}
	return nil
}

// Marshal encodes the registry record.
func (m Marketplace) Marshal() []byte {
	e := &encoder{}
	e.principal(m.Authority)
	e.u64(m.TotalBounties)
	e.u64(m.TotalVolume)
	return e.buf
}

// UnmarshalMarketplace decodes a registry record.
func UnmarshalMarketplace(data []byte) (Marketplace, error) {
	d := &decoder{buf: data}
	m := Marketplace{
		Authority:     d.principal(),
		TotalBounties: d.u64(),
		TotalVolume:   d.u64(),
	}
	return m, d.finish()
}

// Marshal encodes a bounty record.
func (b Bounty) Marshal() []byte {
	e := &encoder{}
	e.u64(b.ID)
	e.principal(b.Creator)
	e.str(b.Title)
	e.str(b.Description)
	e.str(b.Requirements)
	e.u64(b.Reward)
	e.i64(b.Deadline)
	e.u8(uint8(b.Status))
	e.option(b.AssignedAgent != nil)
	if b.AssignedAgent != nil {
		e.principal(*b.AssignedAgent)
	}
	e.i64(b.CreatedAt)
	e.option(b.SubmittedAt != nil)
	if b.SubmittedAt != nil {
		e.i64(*b.SubmittedAt)
	}
	e.option(b.CompletedAt != nil)
	if b.CompletedAt != nil {
		e.i64(*b.CompletedAt)
	}
	e.option(b.CompletionData != nil)
	if b.CompletionData != nil {
		e.str(*b.CompletionData)
	}
	e.option(b.SubmissionURL != nil)
	if b.SubmissionURL != nil {
		e.str(*b.SubmissionURL)
	}
	e.option(b.RejectionReason != nil)
	if b.RejectionReason != nil {
		e.str(*b.RejectionReason)
	}
	return e.buf
}

// UnmarshalBounty decodes a bounty record, enforcing the field length caps.
func UnmarshalBounty(data []byte) (Bounty, error) {
	d := &decoder{buf: data}
	b := Bounty{
		ID:           d.u64(),
		Creator:      d.principal(),
		Title:        d.str(MaxTitleLen),
		Description:  d.str(MaxDescriptionLen),
		Requirements: d.str(MaxRequirementsLen),
		Reward:       d.u64(),
		Deadline:     d.i64(),
		Status:       Status(d.u8()),
	}
	if d.err == nil && b.Status > StatusExpired {
		d.fail("invalid status discriminant %d", uint8(b.Status))
	}
	if d.option() {
		agent := d.principal()
		b.AssignedAgent = &agent
	}
	b.CreatedAt = d.i64()
	if d.option() {
		ts := d.i64()
		b.SubmittedAt = &ts
	}
	if d.option() {
		ts := d.i64()
		b.CompletedAt = &ts
	}
	if d.option() {
		s := d.str(MaxCompletionDataLen)
		b.CompletionData = &s
	}
	if d.option() {
		s := d.str(MaxSubmissionURLLen)
		b.SubmissionURL = &s
	}
	if d.option() {
		s := d.str(MaxRejectionReasonLen)
		b.RejectionReason = &s
	}
	return b, d.finish()
}

// Marshal encodes an agent profile record.
func (p AgentProfile) Marshal() []byte {
	e := &encoder{}
	e.principal(p.Agent)
	e.u32(p.ReputationScore)
	e.u32(p.CompletedBounties)
	e.u64(p.TotalEarned)
	return e.buf
}

// UnmarshalAgentProfile decodes an agent profile record.
func UnmarshalAgentProfile(data []byte) (AgentProfile, error) {
	d := &decoder{buf: data}
	p := AgentProfile{
		Agent:             d.principal(),
		ReputationScore:   d.u32(),
		CompletedBounties: d.u32(),
		TotalEarned:       d.u64(),
	}
	return p, d.finish()
}
