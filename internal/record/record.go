// Package record reads and writes the newline-delimited JSON output records.
package record

import (
	"fmt"

	"firestige.xyz/ngtrace/internal/core"
)

// Record is one accepted message as persisted between stages.
type Record struct {
	Time   *float64 `json:"time"`
	SrcMAC string   `json:"src_mac"`
	DstMAC string   `json:"dst_mac"`
	Data   string   `json:"data"`
}

// FromMessage builds the output record of msg.
func FromMessage(msg *core.Message) Record {
	return Record{
		Time:   msg.Time,
		SrcMAC: msg.Link.Src.String(),
		DstMAC: msg.Link.Dst.String(),
		Data:   msg.Data,
	}
}

// Link parses the MAC pair back.
func (r Record) Link() (core.LinkEndpoints, error) {
	src, err := core.ParseMAC(r.SrcMAC)
	if err != nil {
		return core.LinkEndpoints{}, fmt.Errorf("%w: src_mac: %v", core.ErrRecordMalformed, err)
	}
	dst, err := core.ParseMAC(r.DstMAC)
	if err != nil {
		return core.LinkEndpoints{}, fmt.Errorf("%w: dst_mac: %v", core.ErrRecordMalformed, err)
	}
	return core.LinkEndpoints{Src: src, Dst: dst}, nil
}
