// SPDX-License-Identifier: Unlicense OR MIT

package trap

import (
	"yoos.dev/yoos/kernel"
	"yoos.dev/yoos/riscv"
)

// FloatFlags track the lazily saved floating point state of a task.
type FloatFlags uint8

const (
	// NeedSave means the registers hold state newer than the
	// context.
	NeedSave FloatFlags = 1 << iota
	// NeedRestore means the context holds state that must be loaded
	// before the task runs again.
	NeedRestore
	// SignalDirty remembers across a signal delivery that the state
	// was dirty before the signal.
	SignalDirty
)

// FloatContext is the floating point part of a Context. The register
// file is only moved to and from memory when the flags say so: tasks
// that never touch the floating point unit never pay for it.
type FloatContext struct {
	Regs  [32]float64
	Fcsr  uint32
	Flags FloatFlags
}

// MarkSaveIfNeeded is called on trap entry with the sstatus of the
// trapped code. If the code dirtied the floating point registers, they
// must be saved before anyone else uses them.
//
//go:nosplit
func (f *FloatContext) MarkSaveIfNeeded(s riscv.Sstatus) {
	if s.FS() == riscv.FSDirty {
		f.Flags |= NeedSave | SignalDirty
	}
}

// Save copies the registers into the context if NeedSave is set.
//
//go:nosplit
func (f *FloatContext) Save() {
	if f.Flags&NeedSave == 0 {
		return
	}
	f.save()
}

// Restore copies the context into the registers if NeedRestore is
// set.
//
//go:nosplit
func (f *FloatContext) Restore() {
	if f.Flags&NeedRestore == 0 {
		return
	}
	f.Flags &^= NeedRestore
	kernel.Hart().RestoreFloatRegisters(&f.Regs, f.Fcsr)
}

// YieldTask is called when the owning task is suspended. Another task
// may use the registers before this one resumes.
//
//go:nosplit
func (f *FloatContext) YieldTask() {
	f.Save()
	f.Flags |= NeedRestore
}

// EncounterSignal is called before a signal is delivered. The
// registers are saved regardless of NeedSave so that the state the
// handler sees in the signal frame is current.
//
//go:nosplit
func (f *FloatContext) EncounterSignal() {
	f.save()
}

// SignalReturn is called when a signal handler returns. The state
// saved by EncounterSignal is loaded again before the task resumes.
// It reports whether the state was dirty before the signal.
//
//go:nosplit
func (f *FloatContext) SignalReturn() (wasDirty bool) {
	wasDirty = f.Flags&SignalDirty != 0
	f.Flags = f.Flags&^SignalDirty | NeedRestore
	return wasDirty
}

//go:nosplit
func (f *FloatContext) save() {
	f.Flags &^= NeedSave
	kernel.Hart().SaveFloatRegisters(&f.Regs, &f.Fcsr)
}
