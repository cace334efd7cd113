// Package classfiletest assembles class files and archives for tests.
package classfiletest

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mesh-intelligence/classreg/internal/classfile"
)

// Method describes a method to emit. Code nil with Abstract false emits a
// body of a single "return" instruction.
type Method struct {
	Name       string
	Descriptor string
	Access     uint16
	Abstract   bool
	Code       []byte
	MaxStack   uint16
	MaxLocals  uint16
}

// Field describes a field to emit.
type Field struct {
	Name       string
	Descriptor string
	Access     uint16
}

// Class describes a class file to emit. Names are dotted (com.x.A).
type Class struct {
	Name       string
	Super      string // Defaults to java.lang.Object; "-" emits super_class 0.
	Interfaces []string
	Access     uint16 // Defaults to public | super.
	Major      uint16 // Defaults to 52 (Java 8).
	Fields     []Field
	Methods    []Method
	SourceFile string
	Longs      []int64 // Extra CONSTANT_Long entries, to exercise wide slots.
}

// pool assembles a constant pool, reusing equal Utf8 and Class entries.
type pool struct {
	buf     bytes.Buffer
	count   uint16
	utf8    map[string]uint16
	classes map[string]uint16
}

func newPool() *pool {
	return &pool{count: 1, utf8: map[string]uint16{}, classes: map[string]uint16{}}
}

func (p *pool) addUtf8(s string) uint16 {
	if i, ok := p.utf8[s]; ok {
		return i
	}
	enc := classfile.EncodeModifiedUTF8(s)
	p.buf.WriteByte(1)
	writeU2(&p.buf, uint16(len(enc)))
	p.buf.Write(enc)
	i := p.count
	p.count++
	p.utf8[s] = i
	return i
}

func (p *pool) addClass(dotted string) uint16 {
	internal := strings.ReplaceAll(dotted, ".", "/")
	if i, ok := p.classes[internal]; ok {
		return i
	}
	name := p.addUtf8(internal)
	p.buf.WriteByte(7)
	writeU2(&p.buf, name)
	i := p.count
	p.count++
	p.classes[internal] = i
	return i
}

func (p *pool) addLong(v int64) uint16 {
	p.buf.WriteByte(5)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	p.buf.Write(b[:])
	i := p.count
	p.count += 2
	return i
}

func (p *pool) addDouble(v float64) uint16 {
	p.buf.WriteByte(6)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	p.buf.Write(b[:])
	i := p.count
	p.count += 2
	return i
}

func writeU2(b *bytes.Buffer, v uint16) {
	b.WriteByte(byte(v >> 8))
	b.WriteByte(byte(v))
}

func writeU4(b *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	b.Write(tmp[:])
}

// Bytes returns the encoded class file.
func (c Class) Bytes() []byte {
	p := newPool()
	thisIndex := p.addClass(c.Name)
	var superIndex uint16
	switch c.Super {
	case "-":
	case "":
		superIndex = p.addClass("java.lang.Object")
	default:
		superIndex = p.addClass(c.Super)
	}
	ifaces := make([]uint16, len(c.Interfaces))
	for i, name := range c.Interfaces {
		ifaces[i] = p.addClass(name)
	}
	for _, v := range c.Longs {
		p.addLong(v)
	}
	if len(c.Longs) > 0 {
		p.addDouble(0.5)
	}

	var body bytes.Buffer
	access := c.Access
	if access == 0 {
		access = 0x0021
	}
	writeU2(&body, access)
	writeU2(&body, thisIndex)
	writeU2(&body, superIndex)
	writeU2(&body, uint16(len(ifaces)))
	for _, i := range ifaces {
		writeU2(&body, i)
	}

	writeU2(&body, uint16(len(c.Fields)))
	for _, f := range c.Fields {
		writeU2(&body, f.Access)
		writeU2(&body, p.addUtf8(f.Name))
		writeU2(&body, p.addUtf8(f.Descriptor))
		writeU2(&body, 0)
	}

	writeU2(&body, uint16(len(c.Methods)))
	for _, m := range c.Methods {
		access := m.Access
		if m.Abstract {
			access |= 0x0400
		}
		writeU2(&body, access)
		writeU2(&body, p.addUtf8(m.Name))
		writeU2(&body, p.addUtf8(m.Descriptor))
		if m.Abstract {
			writeU2(&body, 0)
			continue
		}
		code := m.Code
		if code == nil {
			code = []byte{0xb1}
		}
		writeU2(&body, 1)
		writeU2(&body, p.addUtf8("Code"))
		writeU4(&body, uint32(2+2+4+len(code)+2+2))
		writeU2(&body, m.MaxStack)
		writeU2(&body, m.MaxLocals)
		writeU4(&body, uint32(len(code)))
		body.Write(code)
		writeU2(&body, 0)
		writeU2(&body, 0)
	}

	if c.SourceFile != "" {
		writeU2(&body, 1)
		writeU2(&body, p.addUtf8("SourceFile"))
		writeU4(&body, 2)
		writeU2(&body, p.addUtf8(c.SourceFile))
	} else {
		writeU2(&body, 0)
	}

	major := c.Major
	if major == 0 {
		major = 52
	}
	var out bytes.Buffer
	writeU4(&out, classfile.Magic)
	writeU2(&out, 0)
	writeU2(&out, major)
	writeU2(&out, p.count)
	out.Write(p.buf.Bytes())
	out.Write(body.Bytes())
	return out.Bytes()
}

// UnitName returns the archive entry name javac would produce for c.
func (c Class) UnitName() string {
	return strings.ReplaceAll(c.Name, ".", "/") + ".class"
}

// Entry is one archive member.
type Entry struct {
	Name string
	Data []byte
}

// ClassEntry returns an archive entry holding c under its conventional name.
func ClassEntry(c Class) Entry {
	return Entry{Name: c.UnitName(), Data: c.Bytes()}
}

// WriteArchive writes entries, in order, to a ZIP file named name inside
// dir and returns its path.
func WriteArchive(t testing.TB, dir, name string, entries ...Entry) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			t.Fatalf("create entry %s: %v", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			t.Fatalf("write entry %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return path
}

// WriteClass writes c to a file named name inside dir and returns its path.
func WriteClass(t testing.TB, dir, name string, c Class) string {
	t.Helper()
	return WriteFile(t, dir, name, c.Bytes())
}

// WriteFile writes data to a file named name inside dir and returns its path.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
