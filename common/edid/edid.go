// SPDX-FileCopyrightText: 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package edid decodes the 128 byte base block a monitor reports over DDC.
package edid

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
)

const BlockSize = 128

var (
	ErrTooShort    = errors.New("edid: block shorter than 128 bytes")
	ErrBadHeader   = errors.New("edid: invalid header")
	ErrBadChecksum = errors.New("edid: checksum mismatch")
	ErrBadVendor   = errors.New("edid: invalid manufacturer id")
)

var header = []byte{0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00}

const (
	descriptorSerial      = 0xff
	descriptorString      = 0xfe
	descriptorProductName = 0xfc
)

// DetailedTiming keeps the part of a detailed timing descriptor we care about.
type DetailedTiming struct {
	PixelClock uint32 // in Hz
	Width      int    // active pixels
	Height     int
	WidthMm    int
	HeightMm   int
}

// MonitorInfo is the decoded identity of a monitor.
type MonitorInfo struct {
	ManufacturerCode string
	ProductCode      uint16
	SerialNumber     uint32
	ProductionWeek   int
	ProductionYear   int
	Version          int
	Revision         int

	// WidthMm and HeightMm are -1 when the monitor does not report a size.
	WidthMm  int
	HeightMm int

	ProductName string
	SerialText  string
	Text        string

	DetailedTimings []DetailedTiming
}

// Decode validates data and extracts the monitor identity. Bytes after the
// base block (extension blocks) are ignored.
func Decode(data []byte) (*MonitorInfo, error) {
	if len(data) < BlockSize {
		return nil, ErrTooShort
	}
	block := make([]byte, BlockSize)
	copy(block, data[:BlockSize])

	if !bytes.Equal(block[:len(header)], header) {
		return nil, ErrBadHeader
	}
	var sum byte
	for _, b := range block {
		sum += b
	}
	if sum != 0 {
		return nil, ErrBadChecksum
	}

	info := &MonitorInfo{}
	code, ok := decodeManufacturer(block[8], block[9])
	if !ok {
		return nil, ErrBadVendor
	}
	info.ManufacturerCode = code
	info.ProductCode = uint16(block[10]) | uint16(block[11])<<8
	info.SerialNumber = uint32(block[12]) | uint32(block[13])<<8 |
		uint32(block[14])<<16 | uint32(block[15])<<24

	// week 0xff means the year byte is the model year
	if block[16] != 0 && block[16] != 0xff {
		info.ProductionWeek = int(block[16])
	}
	info.ProductionYear = int(block[17]) + 1990
	info.Version = int(block[18])
	info.Revision = int(block[19])

	info.WidthMm = int(block[21]) * 10
	info.HeightMm = int(block[22]) * 10
	if info.WidthMm == 0 || info.HeightMm == 0 {
		info.WidthMm = -1
		info.HeightMm = -1
	}

	for i := 0; i < 4; i++ {
		info.decodeDescriptor(block[54+i*18 : 54+(i+1)*18])
	}
	return info, nil
}

func decodeManufacturer(hi, lo byte) (string, bool) {
	v := uint16(hi)<<8 | uint16(lo)
	var code [3]byte
	for k := 0; k < 3; k++ {
		c := byte((v>>(10-5*uint(k)))&0x1f) + 'A' - 1
		if c < 'A' || c > 'Z' {
			return "", false
		}
		code[k] = c
	}
	return string(code[:]), true
}

func (info *MonitorInfo) decodeDescriptor(d []byte) {
	pixelClock := uint32(d[0]) | uint32(d[1])<<8
	if pixelClock != 0 {
		info.DetailedTimings = append(info.DetailedTimings, DetailedTiming{
			PixelClock: pixelClock * 10000,
			Width:      int(d[2]) | int(d[4]&0xf0)<<4,
			Height:     int(d[5]) | int(d[7]&0xf0)<<4,
			WidthMm:    int(d[12]) | int(d[14]&0xf0)<<4,
			HeightMm:   int(d[13]) | int(d[14]&0x0f)<<8,
		})
		return
	}

	switch d[3] {
	case descriptorProductName:
		info.ProductName = descriptorText(d[5:])
	case descriptorSerial:
		info.SerialText = descriptorText(d[5:])
	case descriptorString:
		info.Text = descriptorText(d[5:])
	}
}

// descriptor strings end at 0x0a and are padded with spaces
func descriptorText(raw []byte) string {
	if i := bytes.IndexByte(raw, 0x0a); i >= 0 {
		raw = raw[:i]
	}
	var sb strings.Builder
	for _, b := range raw {
		if b >= 0x20 && b <= 0x7e {
			sb.WriteByte(b)
		}
	}
	return strings.TrimSpace(sb.String())
}

// VendorName returns the registered name of the manufacturer, or the
// three letter code when it is not known.
func (info *MonitorInfo) VendorName() string {
	if name, ok := vendors[info.ManufacturerCode]; ok {
		return name
	}
	return info.ManufacturerCode
}

// PhysicalSize returns the size in millimeters, falling back to the first
// detailed timing when the basic display parameters leave it empty.
func (info *MonitorInfo) PhysicalSize() (widthMm, heightMm int, ok bool) {
	if info.WidthMm > 0 && info.HeightMm > 0 {
		return info.WidthMm, info.HeightMm, true
	}
	if len(info.DetailedTimings) > 0 {
		dt := info.DetailedTimings[0]
		if dt.WidthMm > 0 && dt.HeightMm > 0 {
			return dt.WidthMm, dt.HeightMm, true
		}
	}
	return -1, -1, false
}

// Inches returns the rounded diagonal, 0 when the size is unknown.
func (info *MonitorInfo) Inches() int {
	w, h, ok := info.PhysicalSize()
	if !ok {
		return 0
	}
	d := math.Sqrt(float64(w*w + h*h))
	return int(d/25.4 + 0.5)
}

// DisplayName builds a human readable name from the vendor and the model.
func (info *MonitorInfo) DisplayName() string {
	vendor := info.VendorName()
	if info.ProductName != "" {
		if strings.HasPrefix(strings.ToLower(info.ProductName), strings.ToLower(vendor)) {
			return info.ProductName
		}
		return vendor + " " + info.ProductName
	}
	if inches := info.Inches(); inches > 0 {
		return fmt.Sprintf("%s %d\"", vendor, inches)
	}
	return vendor
}

// Identity returns the value stored as the EDID of an output in display
// profiles: the SHA-1 of the blob in hex, or "" when there is no blob.
func Identity(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}
