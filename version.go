package policybrief

const Version = "v0.1.0"
