// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account implements the authenticated self-service surface.

Every endpoint operates on the principal behind the presented token. There
is no {id} parameter anywhere in this package: the mobile client manages
"my account", never somebody else's. Administrative access to other
accounts lives in the user package.
*/
package account

// DeviceInput carries the handset attributes captured at registration.
type DeviceInput struct {
	DeviceID   string `json:"device_id"`
	Mark       string `json:"mark"`
	Model      string `json:"model"`
	Carrier    string `json:"carrier"`
	OS         string `json:"os"`
	NFC        bool   `json:"nfc"`
	AppVersion string `json:"app_version"`
}

// # Field Identifiers

const (
	FieldPassword = "password"
	FieldDeviceID = "device_id"
)
