package extraction

import "os/exec"

// Device is the acceleration device used by OCR and model inference.
type Device int

const (
	DeviceCPU Device = iota
	DeviceGPU
)

func (d Device) String() string {
	switch d {
	case DeviceGPU:
		return "gpu"
	default:
		return "cpu"
	}
}

// DetectDevice resolves the configured device selector. "auto" picks GPU
// when one is visible and falls back to CPU; "gpu" falls back to CPU too
// when no GPU is present.
func DetectDevice(selector string) Device {
	switch selector {
	case "cpu":
		return DeviceCPU
	case "gpu", "auto", "":
		if gpuAvailable() {
			return DeviceGPU
		}
		return DeviceCPU
	default:
		return DeviceCPU
	}
}

// gpuAvailable reports whether an NVIDIA GPU is visible to this process.
func gpuAvailable() bool {
	path, err := exec.LookPath("nvidia-smi")
	if err != nil {
		return false
	}
	return exec.Command(path, "-L").Run() == nil
}
