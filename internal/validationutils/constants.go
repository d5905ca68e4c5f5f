package validationutils

// ProjectEpochStartUnix is the project's epoch (Jan 1, 2023 UTC). The ledger
// uses it as the fixed timestamp of the genesis block.
const ProjectEpochStartUnix int64 = 1672531200 // Jan 1, 2023 00:00:00 UTC
