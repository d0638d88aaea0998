// SPDX-FileCopyrightText: 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package edid

// PNP ids of the manufacturers seen most often on desktop monitors and
// laptop panels.
var vendors = map[string]string{
	"AAC": "AcerView",
	"ACI": "Asus Computer Inc",
	"ACR": "Acer",
	"AIC": "AG Neovo",
	"AOC": "AOC",
	"APP": "Apple Computer",
	"AST": "AST Research",
	"AUO": "AU Optronics",
	"AUS": "ASUSTek Computer Inc",
	"BNQ": "BenQ",
	"BOE": "BOE",
	"CMN": "Chimei Innolux",
	"CMO": "Chi Mei Optoelectronics",
	"CPL": "Compal",
	"CPQ": "Compaq",
	"CTX": "CTX",
	"DEC": "DEC",
	"DEL": "Dell",
	"DPC": "Delta",
	"DWE": "Daewoo",
	"ECS": "ELITEGROUP Computer Systems",
	"EIZ": "EIZO",
	"ENC": "Eizo Nanao",
	"EPI": "Envision",
	"FCM": "Funai",
	"FUS": "Fujitsu Siemens",
	"GSM": "LG Electronics",
	"GWY": "Gateway 2000",
	"HEI": "Hyundai",
	"HIQ": "Hyundai ImageQuest",
	"HIT": "Hitachi",
	"HSD": "Hannspree",
	"HSL": "Hansol",
	"HTC": "Hitachi/Nissei",
	"HWP": "HP",
	"HPN": "HP",
	"IBM": "IBM",
	"ICL": "Fujitsu ICL",
	"IVM": "Iiyama",
	"IVO": "InfoVision",
	"KFC": "KFC Computek",
	"LEN": "Lenovo",
	"LGD": "LG Display",
	"LPL": "LG Philips",
	"MAX": "Belinea",
	"MEI": "Panasonic",
	"MEL": "Mitsubishi",
	"MS_": "Panasonic",
	"MSI": "Micro-Star",
	"NAN": "Nanao",
	"NEC": "NEC",
	"NOK": "Nokia",
	"NVD": "Nvidia",
	"OQI": "Optiquest",
	"PHL": "Philips",
	"PIO": "Pioneer",
	"PNR": "Planar",
	"QDS": "Quanta Display",
	"RHT": "Red Hat",
	"SAM": "Samsung",
	"SAN": "Sanyo",
	"SDC": "Samsung Display",
	"SEC": "Seiko Epson",
	"SGI": "SGI",
	"SHP": "Sharp",
	"SNY": "Sony",
	"SRC": "Shamrock",
	"STN": "Samsung",
	"SUN": "Sun Microsystems",
	"TAT": "Tatung",
	"TOS": "Toshiba",
	"TSB": "Toshiba",
	"VIZ": "Vizio",
	"VSC": "ViewSonic",
	"WAC": "Wacom",
	"ZCM": "Zenith",
}
