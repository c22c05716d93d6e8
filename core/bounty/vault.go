package bounty

import (
	"encoding/binary"

	"github.com/zeebo/blake3"
)

// The escrow vault for a bounty is addressed deterministically from the
// creator and the bounty's sequence id. Nothing about the address is secret:
// any party can re-derive it, but only the lifecycle engine authorizes
// transfers out of it. No external principal, creator and agent included,
// ever controls the vault directly.

const vaultSeed = "escrow"

// VaultAddress derives the custody account for (creator, id). The derivation
// is collision-free across bounties because the id is part of the preimage.
func VaultAddress(creator Principal, id uint64) Principal {
	h := blake3.New()
	h.Write([]byte(vaultSeed))
	h.Write(creator[:])
	var idLE [8]byte
	binary.LittleEndian.PutUint64(idLE[:], id)
	h.Write(idLE[:])

	var addr Principal
	copy(addr[:], h.Sum(nil))
	return addr
}

// PlatformAccount is where the fee share of a released vault lands: the
// marketplace authority's account.
func PlatformAccount(m Marketplace) Principal { return m.Authority }

// Vault is the API view of a bounty's escrow account.
type Vault struct {
	Bounty  uint64    `json:"bounty_id"`
	Address Principal `json:"address"`
	Balance uint64    `json:"balance"`
}
