package sandbox

// Hand-encoded WASM modules used only by this package's tests, built
// byte-by-byte against the binary format (no external wasm toolchain
// available): a minimal type/function/memory/global/export/code/data
// section set implementing the alloc/handle ABI Invoke drives.
//
// Both variants share the same alloc: a bump allocator over a mutable
// i32 global, so Invoke's alloc(len)+write(reqPtr, ...) path always
// runs for real, exactly as it would against a compiled guest.
//
// "canned" ignores the request and returns a fixed status/body baked
// into a data segment at instantiation time — enough to drive an
// unconditional-200 scenario, or (packaged twice with different bodies)
// a blob-replacement scenario.
//
// "echo" copies the request bytes verbatim into the response body,
// proving the query-param encoding actually round-trips through guest
// memory rather than being synthesized by the test.

const (
	valI32 = 0x7F
	valI64 = 0x7E

	opGlobalGet = 0x23
	opGlobalSet = 0x24
	opLocalGet  = 0x20
	opLocalSet  = 0x21
	opI32Const  = 0x41
	opI64Const  = 0x42
	opI32Add    = 0x6A
	opI32GeU    = 0x4F
	opI32Load8U = 0x2D
	opI32Store8 = 0x3A
	opI32Store  = 0x36
	opI64ExtU   = 0xAD
	opI64Shl    = 0x86
	opI64Or     = 0x84
	opBlock     = 0x02
	opLoop      = 0x03
	opBr        = 0x0C
	opBrIf      = 0x0D
	opEnd       = 0x0B
	blockEmpty  = 0x40

	heapStart  = 4096
	respOffset = 2048
	bodyOffset = respOffset + 8
)

func uleb(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

func sleb(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			out = append(out, b)
			return out
		}
		out = append(out, b|0x80)
	}
}

func vecOf(entries ...[]byte) []byte {
	out := uleb(uint64(len(entries)))
	for _, e := range entries {
		out = append(out, e...)
	}
	return out
}

func wasmSection(id byte, content []byte) []byte {
	out := []byte{id}
	out = append(out, uleb(uint64(len(content)))...)
	return append(out, content...)
}

func funcType(params, results []byte) []byte {
	out := []byte{0x60}
	out = append(out, uleb(uint64(len(params)))...)
	out = append(out, params...)
	out = append(out, uleb(uint64(len(results)))...)
	out = append(out, results...)
	return out
}

func memarg(align, offset uint64) []byte {
	return append(uleb(align), uleb(offset)...)
}

// allocCode is the shared alloc(len i32) -> i32 bump allocator body:
// returns the current value of global 0, then advances it by len.
func allocCode() []byte {
	locals := vecOf(append(uleb(1), valI32)) // one i32 local: local 1 = ptr
	instrs := []byte{
		opGlobalGet, 0x00,
		opLocalSet, 0x01,
		opLocalGet, 0x01,
		opLocalGet, 0x00,
		opI32Add,
		opGlobalSet, 0x00,
		opLocalGet, 0x01,
		opEnd,
	}
	body := append(locals, instrs...)
	return append(uleb(uint64(len(body))), body...)
}

// cannedHandleCode ignores its parameters and returns a constant packed
// pointer/length referencing the data segment pre-populated at
// respOffset.
func cannedHandleCode(totalLen int) []byte {
	locals := uleb(0)
	var instrs []byte
	instrs = append(instrs, opI32Const)
	instrs = append(instrs, sleb(respOffset)...)
	instrs = append(instrs, opI64ExtU)
	instrs = append(instrs, opI64Const)
	instrs = append(instrs, sleb(32)...)
	instrs = append(instrs, opI64Shl)
	instrs = append(instrs, opI32Const)
	instrs = append(instrs, sleb(int64(totalLen))...)
	instrs = append(instrs, opI64ExtU)
	instrs = append(instrs, opI64Or)
	instrs = append(instrs, opEnd)

	body := append(locals, instrs...)
	return append(uleb(uint64(len(body))), body...)
}

// echoHandleCode copies reqLen bytes from reqPtr (params 0,1) into
// bodyOffset, writes the status/length header at respOffset, and
// returns the packed pointer/length.
func echoHandleCode() []byte {
	locals := vecOf(append(uleb(1), valI32)) // local 2: loop counter i

	var instrs []byte
	emit := func(b ...byte) { instrs = append(instrs, b...) }
	emitI32Const := func(v int64) { emit(opI32Const); instrs = append(instrs, sleb(v)...) }

	// status header
	emitI32Const(respOffset)
	emitI32Const(200)
	emit(opI32Store)
	instrs = append(instrs, memarg(2, 0)...)

	// bodyLen header
	emitI32Const(respOffset + 4)
	emit(opLocalGet, 0x01) // reqLen
	emit(opI32Store)
	instrs = append(instrs, memarg(2, 0)...)

	// i = 0
	emitI32Const(0)
	emit(opLocalSet, 0x02)

	emit(opBlock, blockEmpty)
	emit(opLoop, blockEmpty)

	emit(opLocalGet, 0x02)
	emit(opLocalGet, 0x01)
	emit(opI32GeU)
	emit(opBrIf)
	instrs = append(instrs, uleb(1)...)

	// dst = bodyOffset + i
	emitI32Const(bodyOffset)
	emit(opLocalGet, 0x02)
	emit(opI32Add)
	// value = load8(reqPtr + i)
	emit(opLocalGet, 0x00)
	emit(opLocalGet, 0x02)
	emit(opI32Add)
	emit(opI32Load8U)
	instrs = append(instrs, memarg(0, 0)...)
	emit(opI32Store8)
	instrs = append(instrs, memarg(0, 0)...)

	// i++
	emit(opLocalGet, 0x02)
	emitI32Const(1)
	emit(opI32Add)
	emit(opLocalSet, 0x02)
	emit(opBr)
	instrs = append(instrs, uleb(0)...)

	emit(opEnd) // end loop
	emit(opEnd) // end block

	// result = (respOffset << 32) | (8 + reqLen)
	emitI32Const(respOffset)
	emit(opI64ExtU)
	emit(opI64Const)
	instrs = append(instrs, sleb(32)...)
	emit(opI64Shl)
	emitI32Const(8)
	emit(opLocalGet, 0x01)
	emit(opI32Add)
	emit(opI64ExtU)
	emit(opI64Or)
	emit(opEnd)

	body := append(locals, instrs...)
	return append(uleb(uint64(len(body))), body...)
}

// buildGuestModule assembles a complete module around the given handle
// function body and optional active data segment (nil for the echo
// variant, which needs no pre-populated memory).
func buildGuestModule(handleBody []byte, data []byte) []byte {
	typeSec := wasmSection(1, vecOf(
		funcType([]byte{valI32}, []byte{valI32}),         // alloc
		funcType([]byte{valI32, valI32}, []byte{valI64}), // handle
	))
	funcSec := wasmSection(3, vecOf([]byte{0x00}, []byte{0x01}))
	memSec := wasmSection(5, vecOf(append([]byte{0x00}, uleb(2)...)))

	globalInit := append([]byte{opI32Const}, sleb(heapStart)...)
	globalInit = append(globalInit, opEnd)
	globalEntry := append([]byte{valI32, 0x01}, globalInit...)
	globalSec := wasmSection(6, vecOf(globalEntry))

	exportSec := wasmSection(7, vecOf(
		append(append(uleb(6), []byte("memory")...), 0x02, 0x00),
		append(append(uleb(5), []byte("alloc")...), 0x00, 0x00),
		append(append(uleb(6), []byte("handle")...), 0x00, 0x01),
	))

	codeSec := wasmSection(10, vecOf(allocCode(), handleBody))

	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	out = append(out, typeSec...)
	out = append(out, funcSec...)
	out = append(out, memSec...)
	out = append(out, globalSec...)
	out = append(out, exportSec...)
	out = append(out, codeSec...)
	if data != nil {
		out = append(out, wasmSection(11, data)...)
	}
	return out
}

// cannedDataSegment builds the active data segment writing the 8-byte
// status/length header plus body at respOffset.
func cannedDataSegment(body string) []byte {
	payload := make([]byte, 8+len(body))
	payload[0], payload[1], payload[2], payload[3] = 200, 0, 0, 0
	bl := uint32(len(body))
	payload[4] = byte(bl)
	payload[5] = byte(bl >> 8)
	payload[6] = byte(bl >> 16)
	payload[7] = byte(bl >> 24)
	copy(payload[8:], body)

	offsetExpr := append([]byte{opI32Const}, sleb(respOffset)...)
	offsetExpr = append(offsetExpr, opEnd)

	entry := []byte{0x00}
	entry = append(entry, offsetExpr...)
	entry = append(entry, uleb(uint64(len(payload)))...)
	entry = append(entry, payload...)
	return vecOf(entry)
}

func buildCannedGuest(body string) []byte {
	return buildGuestModule(cannedHandleCode(8+len(body)), cannedDataSegment(body))
}

func buildEchoGuest() []byte {
	return buildGuestModule(echoHandleCode(), nil)
}
