package main

/*
#include <stdint.h>
#include <stdlib.h>

typedef void (*pl_progress_cb)(int32_t op, float percent, const char *status, int32_t eta_ms);

static void pl_invoke_progress(pl_progress_cb cb, int32_t op, float percent, const char *status, int32_t eta_ms) {
	cb(op, percent, status, eta_ms);
}
*/
import "C"

import (
	"unsafe"

	"github.com/embedkit/probelink/internal/boundary"
	"github.com/embedkit/probelink/internal/probe"
)

// goBuf views a C buffer as a byte slice. A null or zero-length
// buffer becomes nil, which the buffer-protocol helper treats as the
// length-query phase.
func goBuf(buf *C.char, n C.size_t) []byte {
	if buf == nil || n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(buf)), int(n))
}

// goStr copies a C string; ok is false for null pointers.
func goStr(s *C.char) (string, bool) {
	if s == nil {
		return "", false
	}
	return C.GoString(s), true
}

//export pl_last_error
func pl_last_error(buf *C.char, bufLen C.size_t) C.size_t {
	return C.size_t(ctx.LastError(goBuf(buf, bufLen)))
}

//export pl_version
func pl_version(buf *C.char, bufLen C.size_t) C.size_t {
	return C.size_t(ctx.VersionString(goBuf(buf, bufLen)))
}

//export pl_probe_count
func pl_probe_count() C.uint32_t {
	return C.uint32_t(ctx.ProbeCount())
}

//export pl_probe_info
func pl_probe_info(index C.uint32_t, identifier *C.char, identifierLen C.size_t, vid, pid *C.uint16_t, serial *C.char, serialLen C.size_t) C.int32_t {
	info, rc := ctx.ProbeInfoAt(uint32(index))
	if rc != 0 {
		return C.int32_t(rc)
	}
	if vid != nil {
		*vid = C.uint16_t(info.VendorID)
	}
	if pid != nil {
		*pid = C.uint16_t(info.ProductID)
	}
	fillClamped(identifier, identifierLen, info.Identifier)
	fillClamped(serial, serialLen, info.Serial)
	return 0
}

// fillClamped writes s into a fixed caller buffer, truncating as
// needed. Unlike the two-phase calls there is no length query here;
// the required size is not reported.
func fillClamped(buf *C.char, n C.size_t, s string) {
	if dst := goBuf(buf, n); dst != nil {
		copy(dst[:len(dst)-1], s)
		end := len(s)
		if end > len(dst)-1 {
			end = len(dst) - 1
		}
		dst[end] = 0
	}
}

//export pl_probe_features
func pl_probe_features(index C.uint32_t, outDriverFlags, outFeatureFlags *C.uint32_t) C.int32_t {
	driver, features, rc := ctx.ProbeFeatures(uint32(index))
	if rc != 0 {
		return C.int32_t(rc)
	}
	if outDriverFlags != nil {
		*outDriverFlags = C.uint32_t(driver)
	}
	if outFeatureFlags != nil {
		*outFeatureFlags = C.uint32_t(features)
	}
	return 0
}

//export pl_probe_check_target
func pl_probe_check_target(index C.uint32_t) C.int32_t {
	return C.int32_t(ctx.ProbeCheckTarget(uint32(index)))
}

//export pl_set_programmer_type_code
func pl_set_programmer_type_code(code C.int32_t) C.int32_t {
	return C.int32_t(ctx.SetTypeCode(int32(code)))
}

//export pl_get_programmer_type_code
func pl_get_programmer_type_code() C.int32_t {
	return C.int32_t(ctx.TypeCode())
}

//export pl_programmer_type_is_supported_code
func pl_programmer_type_is_supported_code(code C.int32_t) C.int32_t {
	return C.int32_t(ctx.TypeSupported(int32(code)))
}

//export pl_programmer_type_to_string
func pl_programmer_type_to_string(code C.int32_t, buf *C.char, bufLen C.size_t) C.size_t {
	return C.size_t(ctx.TypeName(int32(code), goBuf(buf, bufLen)))
}

//export pl_programmer_type_from_string
func pl_programmer_type_from_string(name *C.char, outCode *C.int32_t) C.int32_t {
	if outCode == nil {
		return -1
	}
	s, ok := goStr(name)
	if !ok {
		return -1
	}
	code, rc := ctx.TypeFromString(s)
	if rc != 0 {
		return C.int32_t(rc)
	}
	*outCode = C.int32_t(code)
	return 0
}

//export pl_session_open_auto
func pl_session_open_auto(chip *C.char, speedKHz C.uint32_t, protocolCode C.int32_t) C.uint64_t {
	s, ok := goStr(chip)
	if !ok {
		return 0
	}
	return C.uint64_t(ctx.SessionOpenAuto(s, uint32(speedKHz), int32(protocolCode)))
}

//export pl_session_open_with_probe
func pl_session_open_with_probe(selector, chip *C.char, speedKHz C.uint32_t, protocolCode C.int32_t) C.uint64_t {
	sel, ok := goStr(selector)
	if !ok {
		return 0
	}
	ch, ok := goStr(chip)
	if !ok {
		return 0
	}
	return C.uint64_t(ctx.SessionOpenWithProbe(sel, ch, uint32(speedKHz), int32(protocolCode)))
}

//export pl_session_close
func pl_session_close(session C.uint64_t) C.int32_t {
	return C.int32_t(ctx.SessionClose(uint64(session)))
}

//export pl_core_count
func pl_core_count(session C.uint64_t) C.uint32_t {
	return C.uint32_t(ctx.CoreCount(uint64(session)))
}

//export pl_core_halt
func pl_core_halt(session C.uint64_t, coreIndex, timeoutMS C.uint32_t) C.int32_t {
	return C.int32_t(ctx.CoreHalt(uint64(session), uint32(coreIndex), uint32(timeoutMS)))
}

//export pl_core_run
func pl_core_run(session C.uint64_t, coreIndex C.uint32_t) C.int32_t {
	return C.int32_t(ctx.CoreRun(uint64(session), uint32(coreIndex)))
}

//export pl_core_step
func pl_core_step(session C.uint64_t, coreIndex C.uint32_t) C.int32_t {
	return C.int32_t(ctx.CoreStep(uint64(session), uint32(coreIndex)))
}

//export pl_core_reset
func pl_core_reset(session C.uint64_t, coreIndex C.uint32_t) C.int32_t {
	return C.int32_t(ctx.CoreReset(uint64(session), uint32(coreIndex)))
}

//export pl_core_reset_and_halt
func pl_core_reset_and_halt(session C.uint64_t, coreIndex, timeoutMS C.uint32_t) C.int32_t {
	return C.int32_t(ctx.CoreResetAndHalt(uint64(session), uint32(coreIndex), uint32(timeoutMS)))
}

//export pl_core_status
func pl_core_status(session C.uint64_t, coreIndex C.uint32_t) C.int32_t {
	return C.int32_t(ctx.CoreStatus(uint64(session), uint32(coreIndex)))
}

//export pl_read_8
func pl_read_8(session C.uint64_t, coreIndex C.uint32_t, address C.uint64_t, buf *C.uint8_t, length C.uint32_t) C.int32_t {
	if buf == nil {
		return C.int32_t(ctx.Read8(uint64(session), uint32(coreIndex), uint64(address), nil))
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(buf)), int(length))
	return C.int32_t(ctx.Read8(uint64(session), uint32(coreIndex), uint64(address), dst))
}

//export pl_write_8
func pl_write_8(session C.uint64_t, coreIndex C.uint32_t, address C.uint64_t, buf *C.uint8_t, length C.uint32_t) C.int32_t {
	if buf == nil {
		return C.int32_t(ctx.Write8(uint64(session), uint32(coreIndex), uint64(address), nil))
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(buf)), int(length))
	return C.int32_t(ctx.Write8(uint64(session), uint32(coreIndex), uint64(address), data))
}

//export pl_read_32
func pl_read_32(session C.uint64_t, coreIndex C.uint32_t, address C.uint64_t, buf *C.uint32_t, lenWords C.uint32_t) C.int32_t {
	if buf == nil {
		return C.int32_t(ctx.Read32(uint64(session), uint32(coreIndex), uint64(address), nil))
	}
	dst := unsafe.Slice((*uint32)(unsafe.Pointer(buf)), int(lenWords))
	return C.int32_t(ctx.Read32(uint64(session), uint32(coreIndex), uint64(address), dst))
}

//export pl_write_32
func pl_write_32(session C.uint64_t, coreIndex C.uint32_t, address C.uint64_t, buf *C.uint32_t, lenWords C.uint32_t) C.int32_t {
	if buf == nil {
		return C.int32_t(ctx.Write32(uint64(session), uint32(coreIndex), uint64(address), nil))
	}
	data := unsafe.Slice((*uint32)(unsafe.Pointer(buf)), int(lenWords))
	return C.int32_t(ctx.Write32(uint64(session), uint32(coreIndex), uint64(address), data))
}

//export pl_registers_count
func pl_registers_count(session C.uint64_t, coreIndex C.uint32_t) C.uint32_t {
	return C.uint32_t(ctx.RegistersCount(uint64(session), uint32(coreIndex)))
}

//export pl_register_info
func pl_register_info(session C.uint64_t, coreIndex, regIndex C.uint32_t, regID *C.uint16_t, bitSize *C.uint32_t, name *C.char, nameLen C.size_t) C.int32_t {
	id, bits, rc := ctx.RegisterInfoAt(uint64(session), uint32(coreIndex), uint32(regIndex), goBuf(name, nameLen))
	if rc != 0 {
		return C.int32_t(rc)
	}
	if regID != nil {
		*regID = C.uint16_t(id)
	}
	if bitSize != nil {
		*bitSize = C.uint32_t(bits)
	}
	return 0
}

//export pl_read_reg_u64
func pl_read_reg_u64(session C.uint64_t, coreIndex C.uint32_t, regID C.uint16_t, outValue *C.uint64_t) C.int32_t {
	if outValue == nil {
		return -1
	}
	v, rc := ctx.ReadRegU64(uint64(session), uint32(coreIndex), uint16(regID))
	if rc != 0 {
		return C.int32_t(rc)
	}
	*outValue = C.uint64_t(v)
	return 0
}

//export pl_write_reg_u64
func pl_write_reg_u64(session C.uint64_t, coreIndex C.uint32_t, regID C.uint16_t, value C.uint64_t) C.int32_t {
	return C.int32_t(ctx.WriteRegU64(uint64(session), uint32(coreIndex), uint16(regID), uint64(value)))
}

//export pl_available_breakpoint_units
func pl_available_breakpoint_units(session C.uint64_t, coreIndex C.uint32_t, outUnits *C.uint32_t) C.int32_t {
	if outUnits == nil {
		return -1
	}
	units, rc := ctx.AvailableBreakpointUnits(uint64(session), uint32(coreIndex))
	if rc != 0 {
		return C.int32_t(rc)
	}
	*outUnits = C.uint32_t(units)
	return 0
}

//export pl_set_hw_breakpoint
func pl_set_hw_breakpoint(session C.uint64_t, coreIndex C.uint32_t, address C.uint64_t) C.int32_t {
	return C.int32_t(ctx.SetHWBreakpoint(uint64(session), uint32(coreIndex), uint64(address)))
}

//export pl_clear_hw_breakpoint
func pl_clear_hw_breakpoint(session C.uint64_t, coreIndex C.uint32_t, address C.uint64_t) C.int32_t {
	return C.int32_t(ctx.ClearHWBreakpoint(uint64(session), uint32(coreIndex), uint64(address)))
}

//export pl_clear_all_hw_breakpoints
func pl_clear_all_hw_breakpoints(session C.uint64_t) C.int32_t {
	return C.int32_t(ctx.ClearAllHWBreakpoints(uint64(session)))
}

//export pl_set_progress_callback
func pl_set_progress_callback(cb C.pl_progress_cb) {
	ctx.SetProgressCallback(func(op probe.Operation, percent float32, status string, etaMS int32) {
		cs := C.CString(status)
		defer C.free(unsafe.Pointer(cs))
		C.pl_invoke_progress(cb, C.int32_t(op), C.float(percent), cs, C.int32_t(etaMS))
	})
}

//export pl_clear_progress_callback
func pl_clear_progress_callback() {
	ctx.ClearProgressCallback()
}

func flashOptions(verify, preverify, chipErase C.int32_t, speedKHz C.uint32_t, protocolCode C.int32_t) boundary.FlashOptions {
	return boundary.FlashOptions{
		Verify:    verify != 0,
		Preverify: preverify != 0,
		ChipErase: chipErase != 0,
		SpeedKHz:  uint32(speedKHz),
		Protocol:  int32(protocolCode),
	}
}

//export pl_flash_elf
func pl_flash_elf(chip, path *C.char, verify, preverify, chipErase C.int32_t, speedKHz C.uint32_t, protocolCode C.int32_t) C.int32_t {
	ch, p, ok := flashArgs(chip, path)
	if !ok {
		return 1
	}
	return C.int32_t(ctx.FlashELF(ch, p, flashOptions(verify, preverify, chipErase, speedKHz, protocolCode)))
}

//export pl_flash_hex
func pl_flash_hex(chip, path *C.char, verify, preverify, chipErase C.int32_t, speedKHz C.uint32_t, protocolCode C.int32_t) C.int32_t {
	ch, p, ok := flashArgs(chip, path)
	if !ok {
		return 1
	}
	return C.int32_t(ctx.FlashHex(ch, p, flashOptions(verify, preverify, chipErase, speedKHz, protocolCode)))
}

//export pl_flash_bin
func pl_flash_bin(chip, path *C.char, baseAddress C.uint64_t, skip C.uint32_t, verify, preverify, chipErase C.int32_t, speedKHz C.uint32_t, protocolCode C.int32_t) C.int32_t {
	ch, p, ok := flashArgs(chip, path)
	if !ok {
		return 1
	}
	return C.int32_t(ctx.FlashBin(ch, p, uint64(baseAddress), uint32(skip), flashOptions(verify, preverify, chipErase, speedKHz, protocolCode)))
}

//export pl_flash_auto
func pl_flash_auto(chip, path *C.char, baseAddress C.uint64_t, skip C.uint32_t, verify, preverify, chipErase C.int32_t, speedKHz C.uint32_t, protocolCode C.int32_t) C.int32_t {
	ch, p, ok := flashArgs(chip, path)
	if !ok {
		return 1
	}
	return C.int32_t(ctx.FlashAuto(ch, p, uint64(baseAddress), uint32(skip), flashOptions(verify, preverify, chipErase, speedKHz, protocolCode)))
}

//export pl_chip_erase
func pl_chip_erase(chip *C.char, speedKHz C.uint32_t, protocolCode C.int32_t) C.int32_t {
	ch, ok := goStr(chip)
	if !ok {
		return -1
	}
	return C.int32_t(ctx.ChipErase(ch, uint32(speedKHz), int32(protocolCode)))
}

func flashArgs(chip, path *C.char) (string, string, bool) {
	ch, ok := goStr(chip)
	if !ok {
		return "", "", false
	}
	p, ok := goStr(path)
	if !ok {
		return "", "", false
	}
	return ch, p, true
}

//export pl_chip_manufacturer_count
func pl_chip_manufacturer_count() C.uint32_t {
	return C.uint32_t(ctx.ManufacturerCount())
}

//export pl_chip_manufacturer_name
func pl_chip_manufacturer_name(index C.uint32_t, buf *C.char, bufLen C.size_t) C.size_t {
	return C.size_t(ctx.ManufacturerName(uint32(index), goBuf(buf, bufLen)))
}

//export pl_chip_model_count
func pl_chip_model_count(manufacturerIndex C.uint32_t) C.uint32_t {
	return C.uint32_t(ctx.ModelCount(uint32(manufacturerIndex)))
}

//export pl_chip_model_name
func pl_chip_model_name(manufacturerIndex, chipIndex C.uint32_t, buf *C.char, bufLen C.size_t) C.size_t {
	return C.size_t(ctx.ModelName(uint32(manufacturerIndex), uint32(chipIndex), goBuf(buf, bufLen)))
}

//export pl_chip_model_specs
func pl_chip_model_specs(manufacturerIndex, chipIndex C.uint32_t, buf *C.char, bufLen C.size_t) C.size_t {
	return C.size_t(ctx.ModelSpecs(uint32(manufacturerIndex), uint32(chipIndex), goBuf(buf, bufLen)))
}

//export pl_chip_specs_by_name
func pl_chip_specs_by_name(name *C.char, buf *C.char, bufLen C.size_t) C.size_t {
	s, ok := goStr(name)
	if !ok {
		return 0
	}
	return C.size_t(ctx.SpecsByName(s, goBuf(buf, bufLen)))
}
