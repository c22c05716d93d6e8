package bounty

import "fmt"

// Instruction is the closed set of marketplace operations. Dispatch happens
// over the concrete variant types, so an unhandled variant is a compile-time
// hole rather than a runtime surprise.
type Instruction interface {
	isInstruction()
}

// InitializeMarketplace creates the singleton registry.
type InitializeMarketplace struct{}

// CreateBountyInstruction escrows the reward and opens a new bounty.
type CreateBountyInstruction struct {
	Title        string
	Description  string
	Requirements string
	Reward       uint64
	Deadline     int64
}

// ClaimBountyInstruction assigns the calling agent to an open bounty.
type ClaimBountyInstruction struct {
	BountyID uint64
}

// SubmitCompletionInstruction moves an in-progress bounty to review.
type SubmitCompletionInstruction struct {
	BountyID       uint64
	CompletionData string
	SubmissionURL  string
}

// ApproveCompletionInstruction releases escrow and completes the bounty.
type ApproveCompletionInstruction struct {
	BountyID uint64
}

// RejectCompletionInstruction returns a reviewed bounty to the open pool.
type RejectCompletionInstruction struct {
	BountyID uint64
	Reason   string
}

func (InitializeMarketplace) isInstruction()        {}
func (CreateBountyInstruction) isInstruction()      {}
func (ClaimBountyInstruction) isInstruction()       {}
func (SubmitCompletionInstruction) isInstruction()  {}
func (ApproveCompletionInstruction) isInstruction() {}
func (RejectCompletionInstruction) isInstruction()  {}

// Wire discriminants for the instruction union.
const (
	tagInitialize uint8 = iota
	tagCreateBounty
	tagClaimBounty
	tagSubmitCompletion
	tagApproveCompletion
	tagRejectCompletion
)

// MarshalInstruction encodes an instruction as discriminant + payload.
func MarshalInstruction(in Instruction) []byte {
	e := &encoder{}
	switch v := in.(type) {
	case InitializeMarketplace:
		e.u8(tagInitialize)
	case CreateBountyInstruction:
		e.u8(tagCreateBounty)
		e.str(v.Title)
		e.str(v.Description)
		e.str(v.Requirements)
		e.u64(v.Reward)
		e.i64(v.Deadline)
	case ClaimBountyInstruction:
		e.u8(tagClaimBounty)
		e.u64(v.BountyID)
	case SubmitCompletionInstruction:
		e.u8(tagSubmitCompletion)
		e.u64(v.BountyID)
		e.str(v.CompletionData)
		e.str(v.SubmissionURL)
	case ApproveCompletionInstruction:
		e.u8(tagApproveCompletion)
		e.u64(v.BountyID)
	case RejectCompletionInstruction:
		e.u8(tagRejectCompletion)
		e.u64(v.BountyID)
		e.str(v.Reason)
	}
	return e.buf
}

// UnmarshalInstruction decodes an instruction from its wire form.
func UnmarshalInstruction(data []byte) (Instruction, error) {
	d := &decoder{buf: data}
	tag := d.u8()
	var in Instruction
	switch tag {
	case tagInitialize:
		in = InitializeMarketplace{}
	case tagCreateBounty:
		in = CreateBountyInstruction{
			Title:        d.str(MaxTitleLen),
			Description:  d.str(MaxDescriptionLen),
			Requirements: d.str(MaxRequirementsLen),
			Reward:       d.u64(),
			Deadline:     d.i64(),
		}
	case tagClaimBounty:
		in = ClaimBountyInstruction{BountyID: d.u64()}
	case tagSubmitCompletion:
		in = SubmitCompletionInstruction{
			BountyID:       d.u64(),
			CompletionData: d.str(MaxCompletionDataLen),
			SubmissionURL:  d.str(MaxSubmissionURLLen),
		}
	case tagApproveCompletion:
		in = ApproveCompletionInstruction{BountyID: d.u64()}
	case tagRejectCompletion:
		in = RejectCompletionInstruction{
			BountyID: d.u64(),
			Reason:   d.str(MaxRejectionReasonLen),
		}
	default:
		return nil, fmt.Errorf("unknown instruction discriminant %d", tag)
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return in, nil
}
