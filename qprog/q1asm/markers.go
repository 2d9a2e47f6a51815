package q1asm

// emitSetMarkers lowers a SetMarkers event to set_mrk. mask is the raw
// marker bitmask; unlike emitSetup's initial MarkersDefault, this always
// carries the program's own requested value (spec §4.4.8). set_mrk is a
// latched real-time parameter like set_freq/set_ph/set_awg_gain/
// set_awg_offs, so this marks a pending update (spec §4.4.4).
func (g *Generator) emitSetMarkers(mask uint8) []Instr {
	g.pendingUpdate = true
	return []Instr{instr("set_mrk", arg(int64(mask)))}
}
