package mcmpi

import (
	"os"
	"path/filepath"
)

// LicenseFile is the license acceptance marker the server checks on start.
const LicenseFile = "eula.txt"

// LicenseAccepted is the content of an accepted LicenseFile.
const LicenseAccepted = "eula=true"

// AcceptLicense replaces any existing license file in targetDir with an accepted one.
func AcceptLicense(targetDir string) error {
	filename := filepath.Join(targetDir, LicenseFile)
	// it may legitimately not exist
	_ = os.Remove(filename)
	err := os.WriteFile(filename, []byte(LicenseAccepted), 0o644)
	if err != nil {
		return newError(ErrLicenseWrite, filename, err)
	}
	return nil
}
