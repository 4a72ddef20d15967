// Package discovery advertises and finds pacer bench devices via mDNS.
//
// A device simulator registers "_pacer._tcp" with its device ID, model and
// firmware version in TXT records; the DCM browses for instances so an
// operator can connect without typing an address. This is strictly bench
// tooling: an implanted device is reached over its hardwired telemetry
// link, not the network.
package discovery
