package restcountries

// Country is one element of the restcountries v2 response.
type Country struct {
	Name       string     `json:"name"`
	Capital    string     `json:"capital"`
	Region     string     `json:"region"`
	Population *int64     `json:"population"`
	Flag       string     `json:"flag"`
	Currencies []Currency `json:"currencies"`
}

type Currency struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}
