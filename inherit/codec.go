package inherit

import (
	"encoding/binary"
	"fmt"
)

const (
	planRecordVersion = 1

	// version(1) + owner(20) + flags(1) + last_reset(8) + timeout(8) +
	// balance(8) + share(8) + num_beneficiaries(1)
	planHeaderSize = 55
	// num_claimed(1)
	planClaimedHeaderSize = 1

	flagActive      = 0x01
	flagShareLocked = 0x02
)

// SerializePlan encodes a plan record to its stored binary form.
// Address sets are written in their sorted in-memory order.
func SerializePlan(p *Plan) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: plan", ErrNilParam)
	}
	if len(p.Beneficiaries) > MaxBeneficiaries {
		return nil, fmt.Errorf("%w: %d beneficiaries", ErrInvalidPlanRecord, len(p.Beneficiaries))
	}
	if len(p.Claimed) > 0xFF {
		return nil, fmt.Errorf("%w: %d claimed entries", ErrInvalidPlanRecord, len(p.Claimed))
	}

	size := planHeaderSize + AddressSize*len(p.Beneficiaries) +
		planClaimedHeaderSize + AddressSize*len(p.Claimed)
	buf := make([]byte, size)
	offset := 0

	buf[offset] = planRecordVersion
	offset++

	copy(buf[offset:offset+AddressSize], p.Owner[:])
	offset += AddressSize

	var flags byte
	if p.Active {
		flags |= flagActive
	}
	if p.ShareLocked {
		flags |= flagShareLocked
	}
	buf[offset] = flags
	offset++

	for _, v := range []uint64{p.LastReset, p.TimeoutPeriod, p.Balance, p.PerBeneficiaryShare} {
		binary.BigEndian.PutUint64(buf[offset:offset+8], v)
		offset += 8
	}

	buf[offset] = byte(len(p.Beneficiaries))
	offset++
	for _, a := range p.Beneficiaries {
		copy(buf[offset:offset+AddressSize], a[:])
		offset += AddressSize
	}

	buf[offset] = byte(len(p.Claimed))
	offset++
	for _, a := range p.Claimed {
		copy(buf[offset:offset+AddressSize], a[:])
		offset += AddressSize
	}

	return buf, nil
}

// DeserializePlan decodes a stored plan record.
func DeserializePlan(data []byte) (*Plan, error) {
	if len(data) < planHeaderSize+planClaimedHeaderSize {
		return nil, fmt.Errorf("%w: too short (%d bytes)", ErrInvalidPlanRecord, len(data))
	}
	if data[0] != planRecordVersion {
		return nil, fmt.Errorf("%w: unknown version %d", ErrInvalidPlanRecord, data[0])
	}
	offset := 1

	p := &Plan{}
	copy(p.Owner[:], data[offset:offset+AddressSize])
	offset += AddressSize

	flags := data[offset]
	offset++
	p.Active = flags&flagActive != 0
	p.ShareLocked = flags&flagShareLocked != 0

	p.LastReset = binary.BigEndian.Uint64(data[offset : offset+8])
	offset += 8
	p.TimeoutPeriod = binary.BigEndian.Uint64(data[offset : offset+8])
	offset += 8
	p.Balance = binary.BigEndian.Uint64(data[offset : offset+8])
	offset += 8
	p.PerBeneficiaryShare = binary.BigEndian.Uint64(data[offset : offset+8])
	offset += 8

	numBeneficiaries := int(data[offset])
	offset++
	if numBeneficiaries > MaxBeneficiaries {
		return nil, fmt.Errorf("%w: %d beneficiaries", ErrInvalidPlanRecord, numBeneficiaries)
	}
	if len(data) < offset+AddressSize*numBeneficiaries+planClaimedHeaderSize {
		return nil, fmt.Errorf("%w: truncated beneficiary list", ErrInvalidPlanRecord)
	}
	p.Beneficiaries, offset = readAddrs(data, offset, numBeneficiaries)

	numClaimed := int(data[offset])
	offset++
	expectedSize := offset + AddressSize*numClaimed
	if len(data) != expectedSize {
		return nil, fmt.Errorf("%w: expected %d bytes for %d claimed, got %d",
			ErrInvalidPlanRecord, expectedSize, numClaimed, len(data))
	}
	p.Claimed, _ = readAddrs(data, offset, numClaimed)

	for _, a := range p.Claimed {
		if containsAddr(p.Beneficiaries, a) {
			return nil, fmt.Errorf("%w: %s is both beneficiary and claimant", ErrInvalidPlanRecord, a)
		}
	}
	return p, nil
}

// readAddrs reads n addresses starting at offset, keeping them sorted.
func readAddrs(data []byte, offset, n int) ([]Address, int) {
	if n == 0 {
		return nil, offset
	}
	set := make([]Address, 0, n)
	for i := 0; i < n; i++ {
		var a Address
		copy(a[:], data[offset:offset+AddressSize])
		offset += AddressSize
		set, _ = insertAddr(set, a)
	}
	return set, offset
}
