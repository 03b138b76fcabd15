package constant

// Repository is the project home, used for release lookups.
const Repository = "reelix-cli/reelix"
