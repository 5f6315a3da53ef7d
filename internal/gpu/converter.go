// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/playout/frame"
	"github.com/gogpu/playout/pixfmt"
)

//go:embed shaders/ycbcr_bgra.wgsl
var ycbcrShaderSource string

// ErrUnsupportedFrame is returned by Convert for frames that are not
// planar YCbCr without alpha.
var ErrUnsupportedFrame = errors.New("gpu: frame is not planar YCbCr")

const (
	paramsSize    = 32
	workgroupSize = 8
)

// Converter turns planar YCbCr frames into packed BGRA with a compute
// shader. It is safe for concurrent use; conversions are serialized.
type Converter struct {
	mu         sync.Mutex
	device     hal.Device
	queue      hal.Queue
	module     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
}

// NewConverter builds the conversion pipeline on dev.
func NewConverter(dev *Device) (*Converter, error) {
	device, queue, err := dev.HAL()
	if err != nil {
		return nil, err
	}
	c := &Converter{device: device, queue: queue}
	if err := c.createPipeline(); err != nil {
		c.Destroy()
		return nil, err
	}
	return c, nil
}

// compileSPIRV compiles WGSL to little-endian SPIR-V words.
func compileSPIRV(src string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		return nil, err
	}
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return words, nil
}

func (c *Converter) createPipeline() error {
	source := hal.ShaderSource{WGSL: ycbcrShaderSource}
	if spirv, err := compileSPIRV(ycbcrShaderSource); err == nil {
		source = hal.ShaderSource{SPIRV: spirv}
	} else {
		slogger().Debug("gpu: naga compile failed, passing WGSL to the driver", "err", err)
	}
	module, err := c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "ycbcr_bgra",
		Source: source,
	})
	if err != nil {
		return fmt.Errorf("gpu: compile ycbcr_bgra shader: %w", err)
	}
	c.module = module

	bindLayout, err := c.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "ycbcr_bgra_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create bind group layout: %w", err)
	}
	c.bindLayout = bindLayout

	pipeLayout, err := c.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "ycbcr_bgra_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{c.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create pipeline layout: %w", err)
	}
	c.pipeLayout = pipeLayout

	pipeline, err := c.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "ycbcr_bgra_pipeline", Layout: c.pipeLayout,
		Compute: hal.ComputeState{Module: c.module, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("gpu: create compute pipeline: %w", err)
	}
	c.pipeline = pipeline
	return nil
}

// Supports reports whether Convert accepts f.
func (c *Converter) Supports(f *frame.Frame) bool {
	return !f.Empty() && f.Desc().Format == pixfmt.YCbCr
}

// planeParams packs the three planes of f into one word-aligned byte
// slice and returns the matching shader parameters.
func planeParams(f *frame.Frame) (data, params []byte) {
	pl := f.Desc().Planes
	w, h := f.Width(), f.Height()
	subX := max((w+pl[1].Linesize-1)/max(pl[1].Linesize, 1), 1)
	subY := max((h+pl[1].Height-1)/max(pl[1].Height, 1), 1)

	ySize, cSize := pl[0].Size(), pl[1].Size()
	n := ySize + 2*cSize
	data = make([]byte, (n+3)&^3)
	copy(data, f.Plane(0)[:ySize])
	copy(data[ySize:], f.Plane(1)[:cSize])
	copy(data[ySize+cSize:], f.Plane(2)[:cSize])

	params = make([]byte, paramsSize)
	for i, v := range []int{w, h, pl[0].Stride(), pl[1].Stride(), ySize, ySize + cSize, subX, subY} {
		binary.LittleEndian.PutUint32(params[i*4:], uint32(v)) //nolint:gosec // frame dimensions fit uint32
	}
	return data, params
}

// Convert writes f into dst as tightly packed BGRA rows.
func (c *Converter) Convert(dst []byte, f *frame.Frame) error {
	if !c.Supports(f) {
		return ErrUnsupportedFrame
	}
	w, h := uint32(f.Width()), uint32(f.Height()) //nolint:gosec // frame dimensions fit uint32
	pixelSize := uint64(w) * uint64(h) * 4
	if uint64(len(dst)) < pixelSize {
		return fmt.Errorf("%w: %d bytes for %dx%d", ErrInvalidBufferSize, len(dst), w, h)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pipeline == nil {
		return ErrDeviceClosed
	}

	data, params := planeParams(f)
	buffers := make([]hal.Buffer, 0, 4)
	defer func() {
		for _, b := range buffers {
			c.device.DestroyBuffer(b)
		}
	}()
	create := func(label string, size uint64, usage gputypes.BufferUsage) (hal.Buffer, error) {
		b, err := c.device.CreateBuffer(&hal.BufferDescriptor{Label: label, Size: size, Usage: usage})
		if err != nil {
			return nil, fmt.Errorf("gpu: create %s buffer: %w", label, err)
		}
		buffers = append(buffers, b)
		return b, nil
	}
	paramBuf, err := create("ycbcr_params", paramsSize, gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	planeBuf, err := create("ycbcr_planes", uint64(len(data)), gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	pixelBuf, err := create("ycbcr_pixels", pixelSize, gputypes.BufferUsageStorage|gputypes.BufferUsageCopySrc)
	if err != nil {
		return err
	}
	stagingBuf, err := create("ycbcr_staging", pixelSize, gputypes.BufferUsageMapRead|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	c.queue.WriteBuffer(paramBuf, 0, params)
	c.queue.WriteBuffer(planeBuf, 0, data)

	bg, err := c.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "ycbcr_bind", Layout: c.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: paramBuf.NativeHandle(), Offset: 0, Size: paramsSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: planeBuf.NativeHandle(), Offset: 0, Size: uint64(len(data))}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: pixelBuf.NativeHandle(), Offset: 0, Size: pixelSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create bind group: %w", err)
	}
	defer c.device.DestroyBindGroup(bg)

	encoder, err := c.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "ycbcr_encoder"})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("ycbcr_bgra"); err != nil {
		return fmt.Errorf("gpu: begin encoding: %w", err)
	}
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "ycbcr_pass"})
	pass.SetPipeline(c.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch((w+workgroupSize-1)/workgroupSize, (h+workgroupSize-1)/workgroupSize, 1)
	pass.End()
	encoder.CopyBufferToBuffer(pixelBuf, stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: pixelSize},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer c.device.FreeCommandBuffer(cmdBuf)

	fence, err := c.device.CreateFence()
	if err != nil {
		return fmt.Errorf("gpu: create fence: %w", err)
	}
	defer c.device.DestroyFence(fence)
	if err := c.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("gpu: submit: %w", err)
	}
	ok, err := c.device.Wait(fence, 1, waitTimeout)
	if err != nil || !ok {
		return fmt.Errorf("gpu: wait for conversion: ok=%v err=%w", ok, err)
	}
	if err := c.queue.ReadBuffer(stagingBuf, 0, dst[:pixelSize]); err != nil {
		return fmt.Errorf("gpu: readback: %w", err)
	}
	return nil
}

// Destroy releases the pipeline objects.
func (c *Converter) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pipeline != nil {
		c.device.DestroyComputePipeline(c.pipeline)
		c.pipeline = nil
	}
	if c.pipeLayout != nil {
		c.device.DestroyPipelineLayout(c.pipeLayout)
		c.pipeLayout = nil
	}
	if c.bindLayout != nil {
		c.device.DestroyBindGroupLayout(c.bindLayout)
		c.bindLayout = nil
	}
	if c.module != nil {
		c.device.DestroyShaderModule(c.module)
		c.module = nil
	}
}
