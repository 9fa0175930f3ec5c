package testctl

// Indirection layer to allow stubbing in tests

var (
	fnInstallGo   = installGo
	fnInstallHost = installHost
	fnVerifyHost  = verifyHost

	fnRunGoTests       = runGoTests
	fnRunBlackboxTests = runBlackboxTests

	fnEnsurePorts = ensurePorts
	fnRunSmoke    = runSmoke
)
