package models

import "encoding/xml"

// Feed is an ATOM envelope wrapping CAP alert entries.
type Feed struct {
	XMLName xml.Name `xml:"feed"`
	Xmlns   string   `xml:"xmlns,attr"`
	ID      string   `xml:"id"`
	Title   string   `xml:"title"`
	Updated string   `xml:"updated"`
	Entries []Entry  `xml:"entry"`
}

// Entry is one feed entry carrying a single CAP alert.
type Entry struct {
	ID      string `xml:"id"`
	Title   string `xml:"title"`
	Updated string `xml:"updated"`
	Alert   Alert  `xml:"alert"`
}

// Alert is a CAP 1.2 alert message. Info is nil when the feature carried no
// active flood state or its geometry could not be converted; such alerts are
// never serialized into a feed.
type Alert struct {
	XMLName    xml.Name `xml:"alert"`
	Xmlns      string   `xml:"xmlns,attr"`
	Identifier string   `xml:"identifier"`
	Sender     string   `xml:"sender"`
	Sent       string   `xml:"sent"`
	Status     string   `xml:"status"`
	MsgType    string   `xml:"msgType"`
	Scope      string   `xml:"scope"`
	Info       *Info    `xml:"info,omitempty"`
}

// Info is the CAP info block of an alert.
type Info struct {
	Category    string `xml:"category"`
	Event       string `xml:"event"`
	Urgency     string `xml:"urgency"`
	Severity    string `xml:"severity"`
	Certainty   string `xml:"certainty"`
	Headline    string `xml:"headline"`
	Description string `xml:"description"`
	Effective   string `xml:"effective"`
	Expires     string `xml:"expires"`
	Area        *Area  `xml:"area,omitempty"`
}

// Area holds one CAP polygon string per exterior ring of the source geometry.
type Area struct {
	AreaDesc string   `xml:"areaDesc"`
	Polygons []string `xml:"polygon"`
}

// StateClass is the CAP classification configured for one flood state code.
type StateClass struct {
	Event       string `json:"event"`
	Severity    string `json:"severity"`
	Urgency     string `json:"urgency"`
	Certainty   string `json:"certainty"`
	Headline    string `json:"headline"`
	Description string `json:"description"`
}
