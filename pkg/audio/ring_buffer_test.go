package audio

import (
	"testing"
)

func TestNewRingBuffer(t *testing.T) {
	// 300ms at 16kHz = 4800 samples
	rb := NewRingBuffer(16000, 300)
	if rb.Capacity() != 4800 {
		t.Errorf("Expected capacity 4800, got %d", rb.Capacity())
	}
	if rb.Size() != 0 {
		t.Errorf("Expected size 0, got %d", rb.Size())
	}
}

func TestRingBuffer_WriteAndReadAll(t *testing.T) {
	rb := NewRingBuffer(16000, 100) // 1600 samples capacity

	data1 := make([]float32, 1000)
	for i := range data1 {
		data1[i] = float32(i%256) / 256
	}
	rb.Write(data1)

	if rb.Size() != 1000 {
		t.Errorf("Expected size 1000, got %d", rb.Size())
	}

	result := rb.ReadAll()
	for i := range data1 {
		if result[i] != data1[i] {
			t.Fatalf("ReadAll mismatch at %d: got %v want %v", i, result[i], data1[i])
		}
	}

	// Size should remain unchanged after a non-consuming read.
	if rb.Size() != 1000 {
		t.Errorf("Expected size 1000 after read, got %d", rb.Size())
	}
}

func TestRingBuffer_Wraparound(t *testing.T) {
	rb := NewRingBuffer(16000, 100) // 1600 samples capacity

	data1 := make([]float32, 1000)
	for i := range data1 {
		data1[i] = 1
	}
	rb.Write(data1)

	data2 := make([]float32, 1000)
	for i := range data2 {
		data2[i] = 2
	}
	rb.Write(data2)

	if rb.Size() != rb.Capacity() {
		t.Errorf("Expected buffer to be full, got size %d", rb.Size())
	}

	result := rb.ReadAll()
	if len(result) != rb.Capacity() {
		t.Errorf("Expected %d samples, got %d", rb.Capacity(), len(result))
	}

	// Newest 1000 samples must be data2.
	last := result[len(result)-1000:]
	for i, v := range last {
		if v != 2 {
			t.Errorf("Expected sample 2 at position %d, got %v", i, v)
			break
		}
	}
}

func TestRingBuffer_OversizeWrite(t *testing.T) {
	rb := NewRingBuffer(16000, 10) // 160 samples capacity

	data := make([]float32, 500)
	for i := range data {
		data[i] = float32(i)
	}
	rb.Write(data)

	result := rb.ReadAll()
	if len(result) != rb.Capacity() {
		t.Fatalf("Expected %d samples, got %d", rb.Capacity(), len(result))
	}
	// Only the newest capacity samples survive.
	if result[0] != float32(500-rb.Capacity()) {
		t.Errorf("Expected first sample %v, got %v", float32(500-rb.Capacity()), result[0])
	}
}

func TestRingBuffer_Drain(t *testing.T) {
	rb := NewRingBuffer(16000, 100)
	rb.Write([]float32{1, 2, 3})

	out := rb.Drain()
	if len(out) != 3 {
		t.Fatalf("Expected 3 samples, got %d", len(out))
	}
	if rb.Size() != 0 {
		t.Errorf("Expected empty buffer after drain, got size %d", rb.Size())
	}
}

func TestRingBuffer_Clear(t *testing.T) {
	rb := NewRingBuffer(16000, 100)
	rb.Write(make([]float32, 100))
	rb.Clear()
	if rb.Size() != 0 {
		t.Errorf("Expected size 0 after clear, got %d", rb.Size())
	}
	if rb.ReadAll() != nil {
		t.Error("Expected nil from ReadAll after clear")
	}
}
