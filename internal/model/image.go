package model

const MIMETypePNG = "image/png"

type Image struct {
	MIMEType string
	Data     []byte
}
