// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu moves composed frames onto the GPU through gogpu/wgpu.
//
// A Device wraps a HAL device and queue, either opened directly on the
// Vulkan backend or adopted from a host that implements
// gpucontext.DeviceProvider. Pictures travel through a TransferBuffer
// into a Target texture:
//
//	Map -> write BGRA -> Unmap -> Upload(target) -> fence -> Map ...
//
// While an upload is in flight the buffer is pending and Map returns
// nil, so a caller alternating two buffers never writes memory the GPU
// is still reading.
//
// Converter runs a WGSL compute shader, compiled to SPIR-V with naga,
// that turns planar YCbCr into BGRA without a CPU pass.
package gpu
