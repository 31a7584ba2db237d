package models_test

import (
	"fmt"

	"github.com/HerbHall/droidspec/pkg/models"
	"github.com/HerbHall/droidspec/pkg/ramspec"
)

func ExampleAndroidDevice_RAMRange() {
	d := models.AndroidDevice{Brand: "samsung", Device: "a52q", RAM: "1992-4116MB"}
	var r ramspec.Range = d.RAMRange()
	fmt.Println(d.IdentityKey(), r.Min, r.Max, ramspec.Format(r.Max))
	// Output: samsung/a52q 1992 4116 4.0GB
}
